package challenge

import (
	"time"

	"github.com/google/uuid"

	"matSideAPI/internal/leaderboard"
)

type Challenge struct {
	ID          uuid.UUID `json:"id" db:"id"`
	SchoolID    uuid.UUID `json:"school_id" db:"school_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	StartDate   time.Time `json:"start_date" db:"start_date"`
	EndDate     time.Time `json:"end_date" db:"end_date"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Result is one achievement an athlete logged against a challenge. Rows are
// immutable once created.
type Result struct {
	ID          uuid.UUID `json:"id" db:"id"`
	ChallengeID uuid.UUID `json:"challenge_id" db:"challenge_id"`
	AthleteID   uuid.UUID `json:"athlete_id" db:"athlete_id"`
	Date        time.Time `json:"date" db:"date"`
	Points      int       `json:"points" db:"points"`
	Details     string    `json:"details,omitempty" db:"details"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type CreateChallengeRequest struct {
	Name        string    `json:"name" validate:"required"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
}

type LogResultRequest struct {
	Date    time.Time `json:"date"`
	Points  int       `json:"points" validate:"gte=0"`
	Details string    `json:"details,omitempty"`
}

// Leaderboard is the standings envelope returned to the app: the ranked
// entries plus the requesting athlete's own row if they are on the board.
type Leaderboard struct {
	ChallengeID   uuid.UUID           `json:"challenge_id"`
	Entries       []leaderboard.Entry `json:"entries"`
	UserPosition  *leaderboard.Entry  `json:"user_position"`
	TotalAthletes int                 `json:"total_athletes"`
}
