package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"matSideAPI/internal/types/journal"
)

type JournalService struct {
	db *pgxpool.Pool
}

func NewJournalService(db *pgxpool.Pool) *JournalService {
	return &JournalService{db: db}
}

func (s *JournalService) CreateEntry(ctx context.Context, clerkID string, req *journal.CreateEntryRequest) (*journal.Entry, error) {
	athleteID, err := s.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	date := req.Date
	if date.IsZero() {
		date = time.Now()
	}

	entry := &journal.Entry{
		ID:             uuid.New(),
		AthleteID:      athleteID,
		Date:           date,
		Title:          req.Title,
		Notes:          req.Notes,
		Techniques:     req.Techniques,
		SparringRounds: req.SparringRounds,
		CreatedAt:      time.Now(),
	}

	query := `
	INSERT INTO journal_entries (id, athlete_id, date, title, notes, techniques, sparring_rounds, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = s.db.Exec(ctx, query,
		entry.ID, entry.AthleteID, entry.Date, entry.Title, entry.Notes,
		entry.Techniques, entry.SparringRounds, entry.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create journal entry: %w", err)
	}

	return entry, nil
}

// GetMonth returns the athlete's entries for one calendar month, oldest first,
// which is how the app renders the training calendar.
func (s *JournalService) GetMonth(ctx context.Context, clerkID string, year, month int) (*journal.MonthResponse, error) {
	athleteID, err := s.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	query := `
	SELECT id, athlete_id, date, title, notes, techniques, sparring_rounds, created_at
	FROM journal_entries
	WHERE athlete_id = $1 AND date >= $2 AND date < $3
	ORDER BY date, created_at
	`
	rows, err := s.db.Query(ctx, query, athleteID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch journal entries: %w", err)
	}
	defer rows.Close()

	var entries []*journal.Entry
	for rows.Next() {
		e := &journal.Entry{}
		if err := rows.Scan(
			&e.ID, &e.AthleteID, &e.Date, &e.Title, &e.Notes,
			&e.Techniques, &e.SparringRounds, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		entries = append(entries, e)
	}

	return &journal.MonthResponse{Year: year, Month: month, Entries: entries}, nil
}

func (s *JournalService) DeleteEntry(ctx context.Context, clerkID string, entryID uuid.UUID) error {
	athleteID, err := s.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx,
		`DELETE FROM journal_entries WHERE id = $1 AND athlete_id = $2`,
		entryID, athleteID)
	if err != nil {
		return fmt.Errorf("failed to delete journal entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("journal entry not found")
	}
	return nil
}

func (s *JournalService) userIDByClerkID(ctx context.Context, clerkID string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("user not found: %w", err)
	}
	return userID, nil
}
