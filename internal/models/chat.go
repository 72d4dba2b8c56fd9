package models

import "time"

// Conversation is a durable two-party thread between a client and a GP.
// At most one exists per (client, gp) pair; LastMessage/LastMessageTime are
// denormalized from the newest message for list views.
type Conversation struct {
	ID              int64      `json:"id"`
	ClientID        int64      `json:"client_id"`
	GPID            int64      `json:"gp_id"`
	LastMessage     *string    `json:"last_message,omitempty"`
	LastMessageTime *time.Time `json:"last_message_time,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	SenderID       int64     `json:"sender_id"`
	ReceiverID     int64     `json:"receiver_id"`
	Content        string    `json:"content"`
	IsRead         bool      `json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
}

type ConversationSummary struct {
	Conversation
	UnreadCount int `json:"unread_count"`
}
