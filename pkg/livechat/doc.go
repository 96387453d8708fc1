// Package livechat defines the conversation model the auto-transfer
// monitor works against: rooms, inquiries, messages, the room store, and
// the transfer action.
//
// MemoryStore and AgentPool are in-process implementations used by the
// daemon and by tests. Production deployments provide their own
// RoomStore and Transferer backed by the chat server.
package livechat
