package subscription

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusCanceled Status = "canceled"
)

type Subscription struct {
	ID                   uuid.UUID `json:"id" db:"id"`
	AthleteID            uuid.UUID `json:"athlete_id" db:"athlete_id"`
	SchoolID             uuid.UUID `json:"school_id" db:"school_id"`
	PaddleTransactionID  string    `json:"paddle_transaction_id" db:"paddle_transaction_id"`
	PaddleSubscriptionID string    `json:"paddle_subscription_id,omitempty" db:"paddle_subscription_id"`
	Price                int64     `json:"price" db:"price"`
	CommissionAmount     int64     `json:"commission_amount" db:"commission_amount"`
	NetAmount            int64     `json:"net_amount" db:"net_amount"`
	Status               Status    `json:"status" db:"status"`
	CurrentPeriodEnd     time.Time `json:"current_period_end" db:"current_period_end"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time `json:"updated_at" db:"updated_at"`
}

type SubscribeRequest struct {
	SchoolID string `json:"schoolId" validate:"required"`
}

type SubscribeResponse struct {
	TransactionID string `json:"transactionId"`
	CheckoutURL   string `json:"checkoutUrl"`
}
