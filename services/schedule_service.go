package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/skip2/go-qrcode"

	"matSideAPI/internal/types/schedule"
)

type ScheduleService struct {
	db      *pgxpool.Pool
	schools *SchoolService
}

func NewScheduleService(db *pgxpool.Pool, schools *SchoolService) *ScheduleService {
	return &ScheduleService{db: db, schools: schools}
}

func (s *ScheduleService) CreateClass(ctx context.Context, clerkID string, schoolID uuid.UUID, req *schedule.CreateClassRequest) (*schedule.ClassSlot, error) {
	coachID, err := s.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	sc, err := s.schools.GetSchool(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	if sc.OwnerID != coachID {
		return nil, fmt.Errorf("only the school owner can edit the timetable")
	}

	if req.Weekday < 0 || req.Weekday > 6 {
		return nil, fmt.Errorf("weekday must be between 0 and 6")
	}
	if _, err := time.Parse("15:04", req.StartTime); err != nil {
		return nil, fmt.Errorf("startTime must be HH:MM")
	}
	if req.DurationMin <= 0 {
		return nil, fmt.Errorf("durationMin must be positive")
	}

	slot := &schedule.ClassSlot{
		ID:          uuid.New(),
		SchoolID:    schoolID,
		CoachID:     coachID,
		Title:       req.Title,
		Weekday:     req.Weekday,
		StartTime:   req.StartTime,
		DurationMin: req.DurationMin,
		CreatedAt:   time.Now(),
	}

	query := `
	INSERT INTO class_slots (id, school_id, coach_id, title, weekday, start_time, duration_min, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = s.db.Exec(ctx, query, slot.ID, slot.SchoolID, slot.CoachID, slot.Title, slot.Weekday, slot.StartTime, slot.DurationMin, slot.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create class: %w", err)
	}

	return slot, nil
}

func (s *ScheduleService) ListWeek(ctx context.Context, schoolID uuid.UUID) ([]*schedule.ClassSlot, error) {
	rows, err := s.db.Query(ctx, `
	SELECT id, school_id, coach_id, title, weekday, start_time, duration_min, created_at
	FROM class_slots
	WHERE school_id = $1
	ORDER BY weekday, start_time
	`, schoolID)
	if err != nil {
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}
	defer rows.Close()

	var slots []*schedule.ClassSlot
	for rows.Next() {
		slot := &schedule.ClassSlot{}
		if err := rows.Scan(
			&slot.ID, &slot.SchoolID, &slot.CoachID, &slot.Title,
			&slot.Weekday, &slot.StartTime, &slot.DurationMin, &slot.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan class: %w", err)
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

func (s *ScheduleService) DeleteClass(ctx context.Context, clerkID string, classID uuid.UUID) error {
	coachID, err := s.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, `
	DELETE FROM class_slots cs
	USING schools s
	WHERE cs.id = $1 AND s.id = cs.school_id AND s.owner_id = $2
	`, classID, coachID)
	if err != nil {
		return fmt.Errorf("failed to delete class: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("class not found")
	}
	return nil
}

type CheckInCodeResponse struct {
	Code         string    `json:"code"`
	QrCodeBase64 string    `json:"qr_code_base64"`
	ClassDate    time.Time `json:"class_date"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// IssueCheckInCode creates a short-lived attendance code for today's
// occurrence of a class and renders it as a QR PNG for the coach to show at
// the mat door.
func (s *ScheduleService) IssueCheckInCode(ctx context.Context, clerkID string, classID uuid.UUID) (*CheckInCodeResponse, error) {
	coachID, err := s.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	var schoolOwner uuid.UUID
	err = s.db.QueryRow(ctx, `
	SELECT s.owner_id FROM class_slots cs JOIN schools s ON s.id = cs.school_id WHERE cs.id = $1
	`, classID).Scan(&schoolOwner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("class not found")
		}
		return nil, fmt.Errorf("failed to load class: %w", err)
	}
	if schoolOwner != coachID {
		return nil, fmt.Errorf("only the school owner can issue check-in codes")
	}

	code := uuid.New().String()
	classDate := time.Now().Truncate(24 * time.Hour)
	expiresAt := time.Now().Add(3 * time.Hour)

	query := `
	INSERT INTO checkin_codes (code, class_id, class_date, expires_at)
	VALUES ($1, $2, $3, $4)
	`
	_, err = s.db.Exec(ctx, query, code, classID, classDate, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create check-in code: %w", err)
	}

	qrContent := fmt.Sprintf("matside://checkin/%s", code)
	pngBytes, err := qrcode.Encode(qrContent, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR png: %w", err)
	}

	return &CheckInCodeResponse{
		Code:         code,
		QrCodeBase64: base64.StdEncoding.EncodeToString(pngBytes),
		ClassDate:    classDate,
		ExpiresAt:    expiresAt,
	}, nil
}

// CheckIn redeems a scanned code for the calling athlete. Expired codes and
// double check-ins are rejected.
func (s *ScheduleService) CheckIn(ctx context.Context, clerkID string, code string) (*schedule.CheckIn, error) {
	athleteID, err := s.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	var classID uuid.UUID
	var classDate, expiresAt time.Time
	var schoolID uuid.UUID
	err = s.db.QueryRow(ctx, `
	SELECT cc.class_id, cc.class_date, cc.expires_at, cs.school_id
	FROM checkin_codes cc
	JOIN class_slots cs ON cs.id = cc.class_id
	WHERE cc.code = $1
	`, code).Scan(&classID, &classDate, &expiresAt, &schoolID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("invalid check-in code")
		}
		return nil, fmt.Errorf("failed to look up check-in code: %w", err)
	}

	if time.Now().After(expiresAt) {
		return nil, fmt.Errorf("check-in code expired")
	}

	isMember, err := s.schools.IsMember(ctx, athleteID, schoolID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, fmt.Errorf("athlete is not enrolled in this school")
	}

	checkIn := &schedule.CheckIn{
		ID:        uuid.New(),
		ClassID:   classID,
		AthleteID: athleteID,
		ClassDate: classDate,
		CreatedAt: time.Now(),
	}

	query := `
	INSERT INTO checkins (id, class_id, athlete_id, class_date, created_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (class_id, athlete_id, class_date) DO NOTHING
	`
	tag, err := s.db.Exec(ctx, query, checkIn.ID, checkIn.ClassID, checkIn.AthleteID, checkIn.ClassDate, checkIn.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to check in: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("already checked in")
	}

	return checkIn, nil
}

// ListAttendance returns who checked in to a class on a given date. Owner only.
func (s *ScheduleService) ListAttendance(ctx context.Context, clerkID string, classID uuid.UUID, date time.Time) ([]*schedule.CheckInWithAthlete, error) {
	coachID, err := s.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
	SELECT ci.id, ci.class_id, ci.athlete_id, ci.class_date, ci.created_at, u.username
	FROM checkins ci
	JOIN class_slots cs ON cs.id = ci.class_id
	JOIN schools s ON s.id = cs.school_id
	JOIN users u ON u.id = ci.athlete_id
	WHERE ci.class_id = $1 AND ci.class_date = $2 AND s.owner_id = $3
	ORDER BY ci.created_at
	`, classID, date.Truncate(24*time.Hour), coachID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	defer rows.Close()

	var list []*schedule.CheckInWithAthlete
	for rows.Next() {
		ci := &schedule.CheckInWithAthlete{}
		if err := rows.Scan(&ci.ID, &ci.ClassID, &ci.AthleteID, &ci.ClassDate, &ci.CreatedAt, &ci.AthleteName); err != nil {
			return nil, fmt.Errorf("failed to scan check-in: %w", err)
		}
		list = append(list, ci)
	}
	return list, nil
}

func (s *ScheduleService) userIDByClerkID(ctx context.Context, clerkID string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("user not found: %w", err)
	}
	return userID, nil
}
