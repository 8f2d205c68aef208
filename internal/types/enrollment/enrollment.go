package enrollment

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusLeft     Status = "left"
)

type Enrollment struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	SchoolID   uuid.UUID  `json:"school_id" db:"school_id"`
	AthleteID  uuid.UUID  `json:"athlete_id" db:"athlete_id"`
	Status     Status     `json:"status" db:"status"`
	Message    string     `json:"message,omitempty" db:"message"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty" db:"reviewed_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// EnrollmentWithAthlete is the coach-facing listing row.
type EnrollmentWithAthlete struct {
	Enrollment
	AthleteName     string `json:"athlete_name"`
	AthleteImageURL string `json:"athlete_image_url,omitempty"`
	AthleteBelt     string `json:"athlete_belt,omitempty"`
}

type RequestEnrollmentRequest struct {
	SchoolID string `json:"schoolId" validate:"required"`
	Message  string `json:"message,omitempty"`
}

type ReviewEnrollmentRequest struct {
	Approve bool `json:"approve"`
}
