package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"matSideAPI/internal/user"
)

type UserService struct {
	db *pgxpool.Pool
}

func NewUserService(db *pgxpool.Pool) *UserService {
	return &UserService{db: db}
}

func (s *UserService) CreateUser(ctx context.Context, req *user.CreateUserRequest) (*user.User, error) {
	u := &user.User{
		ID:        uuid.New().String(),
		ClerkID:   req.ClerkID,
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		ImageURL:  req.ImageURL,
		Role:      user.RoleAthlete,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	query := `
	INSERT INTO users (id, clerk_id, email, username, first_name, last_name, image_url, role, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	RETURNING id, clerk_id, email, username, first_name, last_name, image_url, role, belt, email_verified, created_at, updated_at
	`

	err := s.db.QueryRow(
		ctx,
		query,
		u.ID,
		u.ClerkID,
		u.Email,
		u.Username,
		u.FirstName,
		u.LastName,
		u.ImageURL,
		u.Role,
		u.CreatedAt,
		u.UpdatedAt,
	).Scan(
		&u.ID,
		&u.ClerkID,
		&u.Email,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.ImageURL,
		&u.Role,
		&u.Belt,
		&u.EmailVerified,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return u, nil
}

func (s *UserService) GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	query := `
	SELECT id, clerk_id, email, username, first_name, last_name, image_url, role, belt, email_verified, created_at, updated_at
	FROM users
	WHERE clerk_id = $1
	`

	u := &user.User{}
	err := s.db.QueryRow(ctx, query, clerkID).Scan(
		&u.ID,
		&u.ClerkID,
		&u.Email,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.ImageURL,
		&u.Role,
		&u.Belt,
		&u.EmailVerified,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

func (s *UserService) UpdateProfileByClerkID(ctx context.Context, clerkID string, req *user.UpdateProfileRequest) (*user.User, error) {
	setParts := []string{"updated_at = NOW()"}
	args := []any{clerkID}

	if req.Username != "" {
		args = append(args, req.Username)
		setParts = append(setParts, fmt.Sprintf("username = $%d", len(args)))
	}
	if req.FirstName != "" {
		args = append(args, req.FirstName)
		setParts = append(setParts, fmt.Sprintf("first_name = $%d", len(args)))
	}
	if req.LastName != "" {
		args = append(args, req.LastName)
		setParts = append(setParts, fmt.Sprintf("last_name = $%d", len(args)))
	}
	if req.ImageURL != "" {
		args = append(args, req.ImageURL)
		setParts = append(setParts, fmt.Sprintf("image_url = $%d", len(args)))
	}
	if req.Belt != "" {
		args = append(args, req.Belt)
		setParts = append(setParts, fmt.Sprintf("belt = $%d", len(args)))
	}

	query := fmt.Sprintf(`
	UPDATE users SET %s
	WHERE clerk_id = $1
	RETURNING id, clerk_id, email, username, first_name, last_name, image_url, role, belt, email_verified, created_at, updated_at
	`, strings.Join(setParts, ", "))

	u := &user.User{}
	err := s.db.QueryRow(ctx, query, args...).Scan(
		&u.ID,
		&u.ClerkID,
		&u.Email,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.ImageURL,
		&u.Role,
		&u.Belt,
		&u.EmailVerified,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return u, nil
}

func (s *UserService) DeleteUserByClerkID(ctx context.Context, clerkID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM users WHERE clerk_id = $1`, clerkID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}

func (s *UserService) UpdateEmailVerification(ctx context.Context, clerkID string, verified bool) error {
	_, err := s.db.Exec(ctx,
		`UPDATE users SET email_verified = $2, updated_at = NOW() WHERE clerk_id = $1`,
		clerkID, verified)
	if err != nil {
		return fmt.Errorf("failed to update email verification: %w", err)
	}
	return nil
}

// PromoteToCoach flips an athlete account to a coach account. Called when a
// user opens their first school.
func (s *UserService) PromoteToCoach(ctx context.Context, userID uuid.UUID) error {
	_, err := s.db.Exec(ctx,
		`UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1 AND role = $3`,
		userID, user.RoleCoach, user.RoleAthlete)
	if err != nil {
		return fmt.Errorf("failed to promote user: %w", err)
	}
	return nil
}
