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

	"matSideAPI/internal/types/chat"
	"matSideAPI/internal/types/notification"
)

type ChatService struct {
	db            *pgxpool.Pool
	schools       *SchoolService
	notifications *NotificationService
}

func NewChatService(db *pgxpool.Pool, schools *SchoolService, notifications *NotificationService) *ChatService {
	return &ChatService{db: db, schools: schools, notifications: notifications}
}

// SendMessage drops a message into the athlete↔school thread, creating the
// conversation on first contact. The recipient gets an in-app notification;
// live delivery is the app's polling problem, not ours.
func (s *ChatService) SendMessage(ctx context.Context, clerkID string, req *chat.SendMessageRequest) (*chat.Message, error) {
	senderID, err := s.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	schoolID, err := uuid.Parse(req.SchoolID)
	if err != nil {
		return nil, fmt.Errorf("invalid school id")
	}

	sc, err := s.schools.GetSchool(ctx, schoolID)
	if err != nil {
		return nil, err
	}

	// The athlete side of the thread is the sender unless the coach is
	// replying; coaches message through the conversation endpoints instead.
	athleteID := senderID
	recipientID := sc.OwnerID
	if senderID == sc.OwnerID {
		return nil, fmt.Errorf("coaches reply inside an existing conversation")
	}

	isMember, err := s.schools.IsMember(ctx, athleteID, schoolID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, fmt.Errorf("athlete is not enrolled in this school")
	}

	conversationID, err := s.ensureConversation(ctx, schoolID, athleteID)
	if err != nil {
		return nil, err
	}

	return s.insertMessage(ctx, conversationID, senderID, recipientID, req.Body)
}

// ReplyInConversation posts a message into an existing thread from either
// participant.
func (s *ChatService) ReplyInConversation(ctx context.Context, clerkID string, conversationID uuid.UUID, body string) (*chat.Message, error) {
	senderID, err := s.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	conv, ownerID, err := s.conversationWithOwner(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	var recipientID uuid.UUID
	switch senderID {
	case conv.AthleteID:
		recipientID = ownerID
	case ownerID:
		recipientID = conv.AthleteID
	default:
		return nil, fmt.Errorf("not a participant of this conversation")
	}

	return s.insertMessage(ctx, conversationID, senderID, recipientID, body)
}

func (s *ChatService) insertMessage(ctx context.Context, conversationID, senderID, recipientID uuid.UUID, body string) (*chat.Message, error) {
	if body == "" {
		return nil, fmt.Errorf("message body must not be empty")
	}

	msg := &chat.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Body:           body,
		CreatedAt:      time.Now(),
	}

	query := `
	INSERT INTO messages (id, conversation_id, sender_id, body, is_read, created_at)
	VALUES ($1, $2, $3, $4, false, $5)
	`
	_, err := s.db.Exec(ctx, query, msg.ID, msg.ConversationID, msg.SenderID, msg.Body, msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	if err := s.notifications.Notify(ctx, recipientID, notification.TypeChatMessage,
		"New message", truncate(body, 80),
		map[string]any{"conversationId": conversationID.String()}); err != nil {
		log.Printf("Chat: failed to notify recipient: %v", err)
	}

	return msg, nil
}

func (s *ChatService) ensureConversation(ctx context.Context, schoolID, athleteID uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.db.QueryRow(ctx,
		`SELECT id FROM conversations WHERE school_id = $1 AND athlete_id = $2`,
		schoolID, athleteID).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("failed to look up conversation: %w", err)
	}

	id = uuid.New()
	_, err = s.db.Exec(ctx,
		`INSERT INTO conversations (id, school_id, athlete_id, created_at) VALUES ($1, $2, $3, NOW())`,
		id, schoolID, athleteID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return id, nil
}

func (s *ChatService) conversationWithOwner(ctx context.Context, conversationID uuid.UUID) (*chat.Conversation, uuid.UUID, error) {
	conv := &chat.Conversation{}
	var ownerID uuid.UUID
	err := s.db.QueryRow(ctx, `
	SELECT c.id, c.school_id, c.athlete_id, c.created_at, s.owner_id
	FROM conversations c
	JOIN schools s ON s.id = c.school_id
	WHERE c.id = $1
	`, conversationID).Scan(&conv.ID, &conv.SchoolID, &conv.AthleteID, &conv.CreatedAt, &ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, uuid.Nil, fmt.Errorf("conversation not found")
		}
		return nil, uuid.Nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	return conv, ownerID, nil
}

// ListConversations returns the caller's threads with last-message preview
// and unread count, most recent activity first.
func (s *ChatService) ListConversations(ctx context.Context, clerkID string) ([]*chat.ConversationSummary, error) {
	userID, err := s.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT c.id, c.school_id, c.athlete_id, c.created_at,
	       CASE WHEN c.athlete_id = $1 THEN s.name ELSE u.username END AS other_party,
	       COALESCE(m.body, '') AS last_message,
	       COALESCE(m.created_at, c.created_at) AS last_message_at,
	       (SELECT COUNT(*) FROM messages mm
	        WHERE mm.conversation_id = c.id AND mm.is_read = false AND mm.sender_id != $1) AS unread_count
	FROM conversations c
	JOIN schools s ON s.id = c.school_id
	JOIN users u ON u.id = c.athlete_id
	LEFT JOIN LATERAL (
		SELECT body, created_at FROM messages
		WHERE conversation_id = c.id
		ORDER BY created_at DESC LIMIT 1
	) m ON true
	WHERE c.athlete_id = $1 OR s.owner_id = $1
	ORDER BY last_message_at DESC
	`
	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var list []*chat.ConversationSummary
	for rows.Next() {
		cs := &chat.ConversationSummary{}
		if err := rows.Scan(
			&cs.ID, &cs.SchoolID, &cs.AthleteID, &cs.CreatedAt,
			&cs.OtherPartyName, &cs.LastMessage, &cs.LastMessageAt, &cs.UnreadCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		list = append(list, cs)
	}
	return list, nil
}

// GetMessages pages through a conversation, newest page first, and marks the
// fetched incoming messages as read.
func (s *ChatService) GetMessages(ctx context.Context, clerkID string, conversationID uuid.UUID, page, pageSize int) (*chat.MessagesResponse, error) {
	userID, err := s.userIDByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	conv, ownerID, err := s.conversationWithOwner(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if userID != conv.AthleteID && userID != ownerID {
		return nil, fmt.Errorf("not a participant of this conversation")
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 50
	}

	rows, err := s.db.Query(ctx, `
	SELECT id, conversation_id, sender_id, body, is_read, created_at
	FROM messages
	WHERE conversation_id = $1
	ORDER BY created_at DESC
	LIMIT $2 OFFSET $3
	`, conversationID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	defer rows.Close()

	var messages []*chat.Message
	for rows.Next() {
		m := &chat.Message{}
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Body, &m.IsRead, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}

	_, err = s.db.Exec(ctx,
		`UPDATE messages SET is_read = true WHERE conversation_id = $1 AND sender_id != $2 AND is_read = false`,
		conversationID, userID)
	if err != nil {
		log.Printf("Chat: failed to mark messages read: %v", err)
	}

	return &chat.MessagesResponse{Messages: messages, Page: page, PageSize: pageSize}, nil
}

// truncate shortens a notification preview without splitting a rune.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}

func (s *ChatService) userIDByClerkID(ctx context.Context, clerkID string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("user not found: %w", err)
	}
	return userID, nil
}
