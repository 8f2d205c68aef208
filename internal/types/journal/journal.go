package journal

import (
	"time"

	"github.com/google/uuid"
)

type Entry struct {
	ID             uuid.UUID `json:"id" db:"id"`
	AthleteID      uuid.UUID `json:"athlete_id" db:"athlete_id"`
	Date           time.Time `json:"date" db:"date"`
	Title          string    `json:"title" db:"title"`
	Notes          string    `json:"notes" db:"notes"`
	Techniques     string    `json:"techniques,omitempty" db:"techniques"`
	SparringRounds int       `json:"sparring_rounds" db:"sparring_rounds"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

type CreateEntryRequest struct {
	Date           time.Time `json:"date"`
	Title          string    `json:"title" validate:"required"`
	Notes          string    `json:"notes"`
	Techniques     string    `json:"techniques,omitempty"`
	SparringRounds int       `json:"sparringRounds"`
}

type MonthResponse struct {
	Year    int      `json:"year"`
	Month   int      `json:"month"`
	Entries []*Entry `json:"entries"`
}
