package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"matSideAPI/internal/types/notification"
)

// PushNotificationProvider abstracts the push channel so delivery (FCM) can
// be plugged in from main.go and left out entirely in tests.
type PushNotificationProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error
}

type NotificationService struct {
	db           *pgxpool.Pool
	pushProvider PushNotificationProvider

	jobQueue chan *notification.Notification
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewNotificationService(db *pgxpool.Pool) *NotificationService {
	s := &NotificationService{
		db:       db,
		jobQueue: make(chan *notification.Notification, 100),
		stopChan: make(chan struct{}),
	}
	s.startWorkers(4)
	return s
}

// SetPushProvider injects the real FCM provider from main.go.
func (s *NotificationService) SetPushProvider(provider PushNotificationProvider) {
	s.pushProvider = provider
}

func (s *NotificationService) startWorkers(n int) {
	for i := 0; i < n; i++ {
		s.wg.Add(1)
		go s.worker()
	}
}

func (s *NotificationService) worker() {
	defer s.wg.Done()
	for {
		select {
		case notif := <-s.jobQueue:
			s.dispatch(notif)
		case <-s.stopChan:
			return
		}
	}
}

func (s *NotificationService) Stop() {
	close(s.stopChan)
	s.wg.Wait()
}

func (s *NotificationService) dispatch(notif *notification.Notification) {
	if s.pushProvider == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	tokens, err := s.getDeviceTokens(ctx, notif.UserID)
	if err != nil {
		log.Printf("Notification dispatch: failed to load device tokens for %s: %v", notif.UserID, err)
		return
	}

	if err := s.pushProvider.SendPush(ctx, tokens, notif.Title, notif.Message, notif.Data); err != nil {
		// Push delivery is best effort; the in-app row already exists.
		log.Printf("Notification dispatch: push failed for %s: %v", notif.UserID, err)
	}
}

// Notify persists an in-app notification and queues it for push delivery.
func (s *NotificationService) Notify(ctx context.Context, userID uuid.UUID, typ notification.Type, title, message string, data map[string]any) error {
	notif := &notification.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Message:   message,
		Data:      data,
		CreatedAt: time.Now(),
	}

	dataJSON, err := json.Marshal(notif.Data)
	if err != nil {
		dataJSON = []byte("{}")
	}

	query := `
	INSERT INTO notifications (id, user_id, type, title, message, is_read, data, created_at)
	VALUES ($1, $2, $3, $4, $5, false, $6, $7)
	`
	_, err = s.db.Exec(ctx, query, notif.ID, notif.UserID, notif.Type, notif.Title, notif.Message, dataJSON, notif.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	select {
	case s.jobQueue <- notif:
	default:
		log.Printf("Notification queue full, dropping push for %s (in-app row kept)", notif.ID)
	}

	return nil
}

func (s *NotificationService) GetNotifications(ctx context.Context, clerkID string, page, pageSize int) (*notification.ListResponse, error) {
	userID, err := s.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	query := `
	SELECT id, user_id, type, title, message, is_read, data, created_at
	FROM notifications
	WHERE user_id = $1
	ORDER BY created_at DESC
	LIMIT $2 OFFSET $3
	`
	rows, err := s.db.Query(ctx, query, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*notification.Notification
	for rows.Next() {
		n := &notification.Notification{}
		var dataJSON []byte
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.IsRead, &dataJSON, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		if len(dataJSON) > 0 {
			_ = json.Unmarshal(dataJSON, &n.Data)
		}
		notifications = append(notifications, n)
	}

	unread, err := s.unreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &notification.ListResponse{
		Notifications: notifications,
		UnreadCount:   unread,
		Page:          page,
		PageSize:      pageSize,
	}, nil
}

func (s *NotificationService) GetUnreadCount(ctx context.Context, clerkID string) (int, error) {
	userID, err := s.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return 0, err
	}
	return s.unreadCount(ctx, userID)
}

func (s *NotificationService) unreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = false`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func (s *NotificationService) MarkAsRead(ctx context.Context, notificationID uuid.UUID, clerkID string) error {
	userID, err := s.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx,
		`UPDATE notifications SET is_read = true WHERE id = $1 AND user_id = $2`,
		notificationID, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("notification not found")
	}
	return nil
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, clerkID string) error {
	userID, err := s.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, `UPDATE notifications SET is_read = true WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notifications as read: %w", err)
	}
	return nil
}

func (s *NotificationService) RegisterDevice(ctx context.Context, clerkID string, req *notification.RegisterDeviceRequest) error {
	userID, err := s.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return err
	}

	query := `
	INSERT INTO device_tokens (user_id, token, platform, created_at)
	VALUES ($1, $2, $3, NOW())
	ON CONFLICT (token) DO UPDATE SET user_id = $1, platform = $3
	`
	_, err = s.db.Exec(ctx, query, userID, req.Token, req.Platform)
	if err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

func (s *NotificationService) getDeviceTokens(ctx context.Context, userID uuid.UUID) ([]notification.DeviceToken, error) {
	rows, err := s.db.Query(ctx, `SELECT token, platform FROM device_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []notification.DeviceToken
	for rows.Next() {
		var t notification.DeviceToken
		if err := rows.Scan(&t.Token, &t.Platform); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, nil
}

func (s *NotificationService) userIDByClerkID(ctx context.Context, clerkID string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("user not found: %w", err)
	}
	return userID, nil
}
