package notification

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeEnrollmentApproved Type = "enrollment_approved"
	TypeEnrollmentRejected Type = "enrollment_rejected"
	TypeEnrollmentRequest  Type = "enrollment_request"
	TypeChallengeResult    Type = "challenge_result"
	TypeChatMessage        Type = "chat_message"
	TypeSubscription       Type = "subscription"
)

type Notification struct {
	ID        uuid.UUID      `json:"id" db:"id"`
	UserID    uuid.UUID      `json:"user_id" db:"user_id"`
	Type      Type           `json:"type" db:"type"`
	Title     string         `json:"title" db:"title"`
	Message   string         `json:"message" db:"message"`
	IsRead    bool           `json:"is_read" db:"is_read"`
	Data      map[string]any `json:"data,omitempty" db:"data"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
}

type DeviceToken struct {
	Token    string `json:"token" db:"token"`
	Platform string `json:"platform" db:"platform"`
}

type RegisterDeviceRequest struct {
	Token    string `json:"token" validate:"required"`
	Platform string `json:"platform" validate:"required,oneof=ios android web"`
}

type ListResponse struct {
	Notifications []*Notification `json:"notifications"`
	UnreadCount   int             `json:"unread_count"`
	Page          int             `json:"page"`
	PageSize      int             `json:"page_size"`
}
