package school

import (
	"time"

	"github.com/google/uuid"
)

type School struct {
	ID           uuid.UUID `json:"id" db:"id"`
	OwnerID      uuid.UUID `json:"owner_id" db:"owner_id"`
	Name         string    `json:"name" db:"name"`
	City         string    `json:"city" db:"city"`
	Description  string    `json:"description" db:"description"`
	MonthlyPrice int64     `json:"monthly_price" db:"monthly_price"`
	IsArchived   bool      `json:"is_archived" db:"is_archived"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

type CreateSchoolRequest struct {
	Name         string `json:"name" validate:"required"`
	City         string `json:"city"`
	Description  string `json:"description"`
	MonthlyPrice int64  `json:"monthlyPrice" validate:"required"`
}

type UpdateSchoolRequest struct {
	Name         *string `json:"name,omitempty"`
	City         *string `json:"city,omitempty"`
	Description  *string `json:"description,omitempty"`
	MonthlyPrice *int64  `json:"monthlyPrice,omitempty"`
	IsArchived   *bool   `json:"isArchived,omitempty"`
}
