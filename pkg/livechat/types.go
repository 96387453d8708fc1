package livechat

import (
	"context"
	"errors"
	"time"
)

// Hook names fired by the chat server.
const (
	HookAfterTakeInquiry = "livechat.afterTakeInquiry"
	HookAfterSaveMessage = "afterSaveMessage"
)

// Errors.
var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomClosed       = errors.New("room is closed")
	ErrNoAgentAvailable = errors.New("no agent available")
)

// RoomType is the kind of room. Only livechat rooms are monitored.
type RoomType string

const (
	RoomTypeLivechat RoomType = "l"
	RoomTypeChannel  RoomType = "c"
	RoomTypeDirect   RoomType = "d"
	RoomTypePrivate  RoomType = "p"
)

// Agent identifies a livechat agent.
type Agent struct {
	ID       string `yaml:"id" json:"id"`
	Username string `yaml:"username" json:"username"`
}

// Room is a conversation.
type Room struct {
	ID   string
	Type RoomType

	// Open is false once the conversation is closed.
	Open bool

	// ServedBy is the agent currently serving the room, if any.
	ServedBy *Agent

	// AutoTransferredAt is set once the room was auto-transferred. No
	// further auto-transfer is scheduled while it is set.
	AutoTransferredAt *time.Time
}

// IsLivechat reports whether the room is a livechat conversation.
func (r *Room) IsLivechat() bool {
	return r.Type == RoomTypeLivechat
}

// Clone returns a deep copy of the room.
func (r *Room) Clone() *Room {
	c := *r
	if r.ServedBy != nil {
		agent := *r.ServedBy
		c.ServedBy = &agent
	}
	if r.AutoTransferredAt != nil {
		at := *r.AutoTransferredAt
		c.AutoTransferredAt = &at
	}
	return &c
}

// Inquiry is a visitor's request for an agent. The afterTakeInquiry hook
// fires when an agent takes it.
type Inquiry struct {
	ID     string
	RoomID string
	Agent  *Agent
}

// Message is a chat message saved to a room.
type Message struct {
	ID       string
	RoomID   string
	SenderID string
	Text     string

	// Token is set for messages sent by a visitor token or a bot.
	// Such messages are not a human agent response.
	Token string
}

// RoomStore reads and updates rooms.
type RoomStore interface {
	// FindByID returns a copy of the room or ErrRoomNotFound.
	FindByID(ctx context.Context, id string) (*Room, error)

	// SetAutoTransferredAt marks the room as auto-transferred.
	SetAutoTransferredAt(ctx context.Context, id string, at time.Time) error

	// UnsetAutoTransferredAt clears the mark so the room can be
	// auto-transferred again.
	UnsetAutoTransferredAt(ctx context.Context, id string) error
}

// Transferer moves a room to another agent.
type Transferer interface {
	// Transfer reassigns roomID. transferredBy is the agent the room is
	// taken from; it is empty when the room had no agent.
	Transfer(ctx context.Context, roomID, transferredBy string) error
}

// TransferFunc adapts a function to Transferer.
type TransferFunc func(ctx context.Context, roomID, transferredBy string) error

// Transfer calls f.
func (f TransferFunc) Transfer(ctx context.Context, roomID, transferredBy string) error {
	return f(ctx, roomID, transferredBy)
}
