package schedule

import (
	"time"

	"github.com/google/uuid"
)

// ClassSlot is a recurring weekly class on a school's timetable.
type ClassSlot struct {
	ID          uuid.UUID `json:"id" db:"id"`
	SchoolID    uuid.UUID `json:"school_id" db:"school_id"`
	CoachID     uuid.UUID `json:"coach_id" db:"coach_id"`
	Title       string    `json:"title" db:"title"`
	Weekday     int       `json:"weekday" db:"weekday"` // 0 = Sunday, matching time.Weekday
	StartTime   string    `json:"start_time" db:"start_time"` // HH:MM
	DurationMin int       `json:"duration_min" db:"duration_min"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type CreateClassRequest struct {
	Title       string `json:"title" validate:"required"`
	Weekday     int    `json:"weekday" validate:"gte=0,lte=6"`
	StartTime   string `json:"startTime" validate:"required"`
	DurationMin int    `json:"durationMin" validate:"gt=0"`
}

// CheckIn records an athlete's attendance at one dated occurrence of a class.
type CheckIn struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ClassID   uuid.UUID `json:"class_id" db:"class_id"`
	AthleteID uuid.UUID `json:"athlete_id" db:"athlete_id"`
	ClassDate time.Time `json:"class_date" db:"class_date"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type CheckInWithAthlete struct {
	CheckIn
	AthleteName string `json:"athlete_name"`
}

// CheckInCode is the short-lived code a coach puts on the mat door as a QR.
type CheckInCode struct {
	Code      string    `json:"code"`
	ClassID   uuid.UUID `json:"class_id"`
	ClassDate time.Time `json:"class_date"`
	ExpiresAt time.Time `json:"expires_at"`
}

type CheckInRequest struct {
	Code string `json:"code" validate:"required"`
}
