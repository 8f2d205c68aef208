package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"matSideAPI/internal/pricing"
	"matSideAPI/internal/types/enrollment"
	"matSideAPI/internal/types/notification"
	"matSideAPI/internal/types/school"
)

type SchoolService struct {
	db            *pgxpool.Pool
	billing       *BillingService
	notifications *NotificationService
}

func NewSchoolService(db *pgxpool.Pool, billing *BillingService, notifications *NotificationService) *SchoolService {
	return &SchoolService{db: db, billing: billing, notifications: notifications}
}

// CreateSchool opens a new school owned by the calling user. The monthly
// price must sit inside the platform pricing policy bounds; an out-of-range
// price comes back as a pricing.OutOfRangeError for the handler to surface
// as a validation failure.
func (s *SchoolService) CreateSchool(ctx context.Context, clerkID string, req *school.CreateSchoolRequest) (*school.School, error) {
	ownerID, err := s.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	policy, err := s.billing.CurrentPolicy(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := pricing.Evaluate(policy, req.MonthlyPrice); err != nil {
		return nil, err
	}

	sc := &school.School{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		Name:         req.Name,
		City:         req.City,
		Description:  req.Description,
		MonthlyPrice: req.MonthlyPrice,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	query := `
	INSERT INTO schools (id, owner_id, name, city, description, monthly_price, is_archived, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, false, $7, $8)
	`
	_, err = s.db.Exec(ctx, query, sc.ID, sc.OwnerID, sc.Name, sc.City, sc.Description, sc.MonthlyPrice, sc.CreatedAt, sc.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create school: %w", err)
	}

	return sc, nil
}

func (s *SchoolService) GetSchool(ctx context.Context, schoolID uuid.UUID) (*school.School, error) {
	query := `
	SELECT id, owner_id, name, city, description, monthly_price, is_archived, created_at, updated_at
	FROM schools
	WHERE id = $1
	`
	sc := &school.School{}
	err := s.db.QueryRow(ctx, query, schoolID).Scan(
		&sc.ID, &sc.OwnerID, &sc.Name, &sc.City, &sc.Description,
		&sc.MonthlyPrice, &sc.IsArchived, &sc.CreatedAt, &sc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("school not found")
		}
		return nil, fmt.Errorf("failed to get school: %w", err)
	}
	return sc, nil
}

func (s *SchoolService) ListSchools(ctx context.Context, city string) ([]*school.School, error) {
	query := `
	SELECT id, owner_id, name, city, description, monthly_price, is_archived, created_at, updated_at
	FROM schools
	WHERE is_archived = false
	`
	args := []any{}
	if city != "" {
		query += ` AND city ILIKE $1`
		args = append(args, city)
	}
	query += ` ORDER BY name`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list schools: %w", err)
	}
	defer rows.Close()

	var schools []*school.School
	for rows.Next() {
		sc := &school.School{}
		if err := rows.Scan(
			&sc.ID, &sc.OwnerID, &sc.Name, &sc.City, &sc.Description,
			&sc.MonthlyPrice, &sc.IsArchived, &sc.CreatedAt, &sc.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan school: %w", err)
		}
		schools = append(schools, sc)
	}
	return schools, nil
}

// UpdateSchool patches school fields. Only the owner may call it. A price
// change is re-checked against the current pricing policy.
func (s *SchoolService) UpdateSchool(ctx context.Context, clerkID string, schoolID uuid.UUID, req *school.UpdateSchoolRequest) (*school.School, error) {
	sc, err := s.GetSchool(ctx, schoolID)
	if err != nil {
		return nil, err
	}

	callerID, err := s.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}
	if sc.OwnerID != callerID {
		return nil, fmt.Errorf("only the school owner can update it")
	}

	if req.Name != nil {
		sc.Name = *req.Name
	}
	if req.City != nil {
		sc.City = *req.City
	}
	if req.Description != nil {
		sc.Description = *req.Description
	}
	if req.MonthlyPrice != nil {
		policy, err := s.billing.CurrentPolicy(ctx)
		if err != nil {
			return nil, err
		}
		if _, err := pricing.Evaluate(policy, *req.MonthlyPrice); err != nil {
			return nil, err
		}
		sc.MonthlyPrice = *req.MonthlyPrice
	}
	if req.IsArchived != nil {
		sc.IsArchived = *req.IsArchived
	}

	query := `
	UPDATE schools
	SET name = $2, city = $3, description = $4, monthly_price = $5, is_archived = $6, updated_at = NOW()
	WHERE id = $1
	RETURNING updated_at
	`
	err = s.db.QueryRow(ctx, query, sc.ID, sc.Name, sc.City, sc.Description, sc.MonthlyPrice, sc.IsArchived).Scan(&sc.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update school: %w", err)
	}

	return sc, nil
}

// RequestEnrollment files a pending join request from an athlete. Duplicate
// pending/approved requests are rejected by the partial unique index.
func (s *SchoolService) RequestEnrollment(ctx context.Context, clerkID string, req *enrollment.RequestEnrollmentRequest) (*enrollment.Enrollment, error) {
	athleteID, err := s.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	schoolID, err := uuid.Parse(req.SchoolID)
	if err != nil {
		return nil, fmt.Errorf("invalid school id")
	}

	sc, err := s.GetSchool(ctx, schoolID)
	if err != nil {
		return nil, err
	}

	enr := &enrollment.Enrollment{
		ID:        uuid.New(),
		SchoolID:  schoolID,
		AthleteID: athleteID,
		Status:    enrollment.StatusPending,
		Message:   req.Message,
		CreatedAt: time.Now(),
	}

	query := `
	INSERT INTO enrollments (id, school_id, athlete_id, status, message, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.db.Exec(ctx, query, enr.ID, enr.SchoolID, enr.AthleteID, enr.Status, enr.Message, enr.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to request enrollment: %w", err)
	}

	if err := s.notifications.Notify(ctx, sc.OwnerID, notification.TypeEnrollmentRequest,
		"New enrollment request",
		fmt.Sprintf("An athlete asked to join %s", sc.Name),
		map[string]any{"enrollmentId": enr.ID.String(), "schoolId": sc.ID.String()},
	); err != nil {
		log.Printf("Enrollment: failed to notify school owner: %v", err)
	}

	return enr, nil
}

// ReviewEnrollment lets the school owner approve or reject a pending request
// and notifies the athlete either way.
func (s *SchoolService) ReviewEnrollment(ctx context.Context, clerkID string, enrollmentID uuid.UUID, approve bool) (*enrollment.Enrollment, error) {
	callerID, err := s.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	enr := &enrollment.Enrollment{}
	var schoolName string
	var ownerID uuid.UUID
	query := `
	SELECT e.id, e.school_id, e.athlete_id, e.status, e.message, e.reviewed_at, e.created_at, s.name, s.owner_id
	FROM enrollments e
	JOIN schools s ON s.id = e.school_id
	WHERE e.id = $1
	`
	err = s.db.QueryRow(ctx, query, enrollmentID).Scan(
		&enr.ID, &enr.SchoolID, &enr.AthleteID, &enr.Status, &enr.Message, &enr.ReviewedAt, &enr.CreatedAt,
		&schoolName, &ownerID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("enrollment not found")
		}
		return nil, fmt.Errorf("failed to load enrollment: %w", err)
	}

	if ownerID != callerID {
		return nil, fmt.Errorf("only the school owner can review enrollments")
	}
	if enr.Status != enrollment.StatusPending {
		return nil, fmt.Errorf("enrollment already reviewed")
	}

	status := enrollment.StatusRejected
	notifType := notification.TypeEnrollmentRejected
	notifTitle := "Enrollment rejected"
	notifMsg := fmt.Sprintf("Your request to join %s was rejected", schoolName)
	if approve {
		status = enrollment.StatusApproved
		notifType = notification.TypeEnrollmentApproved
		notifTitle = "Enrollment approved"
		notifMsg = fmt.Sprintf("Welcome to %s!", schoolName)
	}

	now := time.Now()
	_, err = s.db.Exec(ctx,
		`UPDATE enrollments SET status = $2, reviewed_at = $3 WHERE id = $1`,
		enr.ID, status, now)
	if err != nil {
		return nil, fmt.Errorf("failed to review enrollment: %w", err)
	}
	enr.Status = status
	enr.ReviewedAt = &now

	if err := s.notifications.Notify(ctx, enr.AthleteID, notifType, notifTitle, notifMsg,
		map[string]any{"schoolId": enr.SchoolID.String()}); err != nil {
		log.Printf("Enrollment review: failed to notify athlete: %v", err)
	}

	return enr, nil
}

// ListEnrollments returns a school's enrollment rows for its owner, newest
// first, optionally filtered by status.
func (s *SchoolService) ListEnrollments(ctx context.Context, clerkID string, schoolID uuid.UUID, status enrollment.Status) ([]*enrollment.EnrollmentWithAthlete, error) {
	callerID, err := s.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	sc, err := s.GetSchool(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	if sc.OwnerID != callerID {
		return nil, fmt.Errorf("only the school owner can list enrollments")
	}

	query := `
	SELECT e.id, e.school_id, e.athlete_id, e.status, e.message, e.reviewed_at, e.created_at,
	       u.username, u.image_url, u.belt
	FROM enrollments e
	JOIN users u ON u.id = e.athlete_id
	WHERE e.school_id = $1
	`
	args := []any{schoolID}
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND e.status = $%d", len(args))
	}
	query += " ORDER BY e.created_at DESC"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	defer rows.Close()

	var list []*enrollment.EnrollmentWithAthlete
	for rows.Next() {
		e := &enrollment.EnrollmentWithAthlete{}
		if err := rows.Scan(
			&e.ID, &e.SchoolID, &e.AthleteID, &e.Status, &e.Message, &e.ReviewedAt, &e.CreatedAt,
			&e.AthleteName, &e.AthleteImageURL, &e.AthleteBelt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		list = append(list, e)
	}
	return list, nil
}

// ListMyEnrollments is the athlete-side view of their own requests.
func (s *SchoolService) ListMyEnrollments(ctx context.Context, clerkID string) ([]*enrollment.Enrollment, error) {
	athleteID, err := s.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT id, school_id, athlete_id, status, message, reviewed_at, created_at
	FROM enrollments
	WHERE athlete_id = $1
	ORDER BY created_at DESC
	`
	rows, err := s.db.Query(ctx, query, athleteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	defer rows.Close()

	var list []*enrollment.Enrollment
	for rows.Next() {
		e := &enrollment.Enrollment{}
		if err := rows.Scan(&e.ID, &e.SchoolID, &e.AthleteID, &e.Status, &e.Message, &e.ReviewedAt, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}
		list = append(list, e)
	}
	return list, nil
}

// IsMember reports whether the athlete has an approved enrollment at the
// school. Challenge, chat and schedule access all gate on this.
func (s *SchoolService) IsMember(ctx context.Context, athleteID, schoolID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM enrollments WHERE athlete_id = $1 AND school_id = $2 AND status = 'approved')`,
		athleteID, schoolID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return exists, nil
}

func (s *SchoolService) userIDByClerkID(ctx context.Context, clerkID string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("user not found: %w", err)
	}
	return userID, nil
}
