package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"matSideAPI/internal/leaderboard"
	"matSideAPI/internal/types/challenge"
	"matSideAPI/internal/user"
)

type ChallengeService struct {
	db      *pgxpool.Pool
	schools *SchoolService
}

func NewChallengeService(db *pgxpool.Pool, schools *SchoolService) *ChallengeService {
	return &ChallengeService{db: db, schools: schools}
}

func (s *ChallengeService) CreateChallenge(ctx context.Context, clerkID string, schoolID uuid.UUID, req *challenge.CreateChallengeRequest) (*challenge.Challenge, error) {
	callerID, err := s.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	sc, err := s.schools.GetSchool(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	if sc.OwnerID != callerID {
		return nil, fmt.Errorf("only the school owner can create challenges")
	}

	ch := &challenge.Challenge{
		ID:          uuid.New(),
		SchoolID:    schoolID,
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		IsActive:    true,
		CreatedAt:   time.Now(),
	}

	query := `
	INSERT INTO challenges (id, school_id, name, description, start_date, end_date, is_active, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = s.db.Exec(ctx, query, ch.ID, ch.SchoolID, ch.Name, ch.Description, ch.StartDate, ch.EndDate, ch.IsActive, ch.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}

	return ch, nil
}

func (s *ChallengeService) GetChallenge(ctx context.Context, challengeID uuid.UUID) (*challenge.Challenge, error) {
	ch := &challenge.Challenge{}
	err := s.db.QueryRow(ctx, `
	SELECT id, school_id, name, description, start_date, end_date, is_active, created_at
	FROM challenges
	WHERE id = $1
	`, challengeID).Scan(
		&ch.ID, &ch.SchoolID, &ch.Name, &ch.Description, &ch.StartDate, &ch.EndDate, &ch.IsActive, &ch.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("challenge not found")
		}
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	return ch, nil
}

func (s *ChallengeService) ListSchoolChallenges(ctx context.Context, schoolID uuid.UUID) ([]*challenge.Challenge, error) {
	rows, err := s.db.Query(ctx, `
	SELECT id, school_id, name, description, start_date, end_date, is_active, created_at
	FROM challenges
	WHERE school_id = $1
	ORDER BY start_date DESC
	`, schoolID)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	defer rows.Close()

	var challenges []*challenge.Challenge
	for rows.Next() {
		ch := &challenge.Challenge{}
		if err := rows.Scan(
			&ch.ID, &ch.SchoolID, &ch.Name, &ch.Description, &ch.StartDate, &ch.EndDate, &ch.IsActive, &ch.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		challenges = append(challenges, ch)
	}
	return challenges, nil
}

// LogResult appends an immutable achievement row for the calling athlete.
// Only approved members of the challenge's school may log, the challenge has
// to be active, and points must not be negative.
func (s *ChallengeService) LogResult(ctx context.Context, clerkID string, challengeID uuid.UUID, req *challenge.LogResultRequest) (*challenge.Result, error) {
	athleteID, err := s.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	if req.Points < 0 {
		return nil, fmt.Errorf("points must not be negative")
	}

	ch, err := s.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if !ch.IsActive {
		return nil, fmt.Errorf("challenge is not active")
	}

	isMember, err := s.schools.IsMember(ctx, athleteID, ch.SchoolID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, fmt.Errorf("athlete is not enrolled in this school")
	}

	date := req.Date
	if date.IsZero() {
		date = time.Now()
	}

	result := &challenge.Result{
		ID:          uuid.New(),
		ChallengeID: challengeID,
		AthleteID:   athleteID,
		Date:        date,
		Points:      req.Points,
		Details:     req.Details,
		CreatedAt:   time.Now(),
	}

	query := `
	INSERT INTO challenge_results (id, challenge_id, athlete_id, date, points, details, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = s.db.Exec(ctx, query, result.ID, result.ChallengeID, result.AthleteID, result.Date, result.Points, result.Details, result.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to log result: %w", err)
	}

	return result, nil
}

// GetLeaderboard computes the challenge standings. Results are loaded in the
// order they were logged, the involved athletes' names are pre-fetched into a
// local map, and the pure aggregation in internal/leaderboard does the rest.
func (s *ChallengeService) GetLeaderboard(ctx context.Context, clerkID string, challengeID uuid.UUID) (*challenge.Leaderboard, error) {
	callerID, err := s.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
	SELECT athlete_id, points
	FROM challenge_results
	WHERE challenge_id = $1
	ORDER BY created_at, id
	`, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch results: %w", err)
	}
	defer rows.Close()

	var results []leaderboard.Result
	athleteIDs := map[string]bool{}
	for rows.Next() {
		var athleteID uuid.UUID
		var points int
		if err := rows.Scan(&athleteID, &points); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, leaderboard.Result{AthleteID: athleteID.String(), Points: points})
		athleteIDs[athleteID.String()] = true
	}

	names, err := s.displayNames(ctx, athleteIDs)
	if err != nil {
		return nil, err
	}

	entries := leaderboard.Rank(results, func(athleteID string) (string, bool) {
		name, ok := names[athleteID]
		return name, ok
	})

	board := &challenge.Leaderboard{
		ChallengeID:   challengeID,
		Entries:       entries,
		TotalAthletes: len(entries),
	}
	for i := range entries {
		if entries[i].AthleteID == callerID.String() {
			board.UserPosition = &entries[i]
			break
		}
	}

	return board, nil
}

func (s *ChallengeService) displayNames(ctx context.Context, athleteIDs map[string]bool) (map[string]string, error) {
	names := make(map[string]string, len(athleteIDs))
	if len(athleteIDs) == 0 {
		return names, nil
	}

	ids := make([]uuid.UUID, 0, len(athleteIDs))
	for id := range athleteIDs {
		parsed, err := uuid.Parse(id)
		if err != nil {
			continue
		}
		ids = append(ids, parsed)
	}

	rows, err := s.db.Query(ctx, `SELECT id, username, first_name, last_name FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch athlete names: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var u user.User
		if err := rows.Scan(&id, &u.Username, &u.FirstName, &u.LastName); err != nil {
			return nil, fmt.Errorf("failed to scan athlete name: %w", err)
		}
		names[id.String()] = u.DisplayName()
	}
	return names, nil
}

func (s *ChallengeService) userIDByClerkID(ctx context.Context, clerkID string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("user not found: %w", err)
	}
	return userID, nil
}
