package chat

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is a direct thread between an athlete and a school's coach.
// Live transport is out of scope here; the app polls these endpoints.
type Conversation struct {
	ID        uuid.UUID `json:"id" db:"id"`
	SchoolID  uuid.UUID `json:"school_id" db:"school_id"`
	AthleteID uuid.UUID `json:"athlete_id" db:"athlete_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Message struct {
	ID             uuid.UUID `json:"id" db:"id"`
	ConversationID uuid.UUID `json:"conversation_id" db:"conversation_id"`
	SenderID       uuid.UUID `json:"sender_id" db:"sender_id"`
	Body           string    `json:"body" db:"body"`
	IsRead         bool      `json:"is_read" db:"is_read"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

type ConversationSummary struct {
	Conversation
	OtherPartyName string    `json:"other_party_name"`
	LastMessage    string    `json:"last_message,omitempty"`
	LastMessageAt  time.Time `json:"last_message_at"`
	UnreadCount    int       `json:"unread_count"`
}

type SendMessageRequest struct {
	SchoolID string `json:"schoolId" validate:"required"`
	Body     string `json:"body" validate:"required,max=2000"`
}

type MessagesResponse struct {
	Messages []*Message `json:"messages"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
}
