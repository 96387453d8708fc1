// Package autotransfer transfers livechat rooms to another agent when
// the agent that took them does not reply in time.
//
// A Monitor arms one timer per room. When the timer fires, the room is
// looked up again and, if it is still open and not yet auto-transferred,
// the Transferer moves it away from its current agent.
//
// A Bridge connects the Monitor to the chat server: it watches the
// timeout setting and, while the setting is positive, registers two
// hook handlers. Taking an inquiry starts monitoring the room; a human
// message in a livechat room stops it.
//
//	settings ──► Bridge ──► hooks.Registry
//	                │
//	                ▼
//	             Monitor ──► timer.Registry
//	                │
//	                ▼
//	      RoomStore / Transferer
package autotransfer
