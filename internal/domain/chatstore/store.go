// Package chatstore persists chats, messages, and per-message feedback.
// A chat belongs to one user; every user/assistant exchange is stored as a
// pair of message rows, with the routed intent recorded on the assistant row.
package chatstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Nsralla/HRNexus-AI-assistant/internal/domain/chat"
	"github.com/Nsralla/HRNexus-AI-assistant/pkg/uuid"
)

var (
	// ErrChatNotFound is returned when a chat id does not exist or belongs
	// to a different user.
	ErrChatNotFound = errors.New("chat not found")

	// ErrMessageNotFound is returned when feedback targets an unknown
	// message.
	ErrMessageNotFound = errors.New("message not found")

	// ErrFeedbackExists is returned on a second feedback for a message.
	ErrFeedbackExists = errors.New("feedback already recorded for message")
)

// Chat is a stored conversation container.
type Chat struct {
	ID        string
	UserID    string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is one stored turn. Intent is empty on user turns.
type Message struct {
	ID        string
	ChatID    string
	Role      chat.Role
	Content   string
	Intent    string
	CreatedAt time.Time
}

// Feedback is a thumbs up/down on an assistant message.
type Feedback struct {
	ID        string
	MessageID string
	Rating    int
	Comment   string
	CreatedAt time.Time
}

// maxTitleLen bounds auto-generated chat titles.
const maxTitleLen = 80

// Store provides chat persistence on SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a store backed by the given database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// CreateChat creates an empty chat for the user. The title defaults to empty
// and is filled from the first user message on the first exchange.
func (s *Store) CreateChat(ctx context.Context, userID, title string) (*Chat, error) {
	now := time.Now().UTC()
	c := &Chat{
		ID:        uuid.NewV7().String(),
		UserID:    userID,
		Title:     truncateTitle(title),
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chats (id, user_id, title, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Title, fmtTime(now), fmtTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("chatstore.CreateChat: %w", err)
	}
	return c, nil
}

// GetChat loads one chat, scoped to its owner.
func (s *Store) GetChat(ctx context.Context, userID, chatID string) (*Chat, error) {
	var (
		c                    Chat
		createdAt, updatedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, created_at, updated_at
		FROM chats WHERE id = ? AND user_id = ?`, chatID, userID,
	).Scan(&c.ID, &c.UserID, &c.Title, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrChatNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("chatstore.GetChat: %w", err)
	}
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)
	return &c, nil
}

// ListChats returns the user's chats, most recently updated first.
func (s *Store) ListChats(ctx context.Context, userID string) ([]Chat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, created_at, updated_at
		FROM chats WHERE user_id = ?
		ORDER BY updated_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("chatstore.ListChats: %w", err)
	}
	defer rows.Close()

	var out []Chat
	for rows.Next() {
		var (
			c                    Chat
			createdAt, updatedAt string
		)
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("chatstore.ListChats: scan: %w", err)
		}
		c.CreatedAt = parseTime(createdAt)
		c.UpdatedAt = parseTime(updatedAt)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("chatstore.ListChats: %w", err)
	}
	return out, nil
}

// DeleteChat removes a chat and, via cascade, its messages and feedback.
func (s *Store) DeleteChat(ctx context.Context, userID, chatID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM chats WHERE id = ? AND user_id = ?`, chatID, userID)
	if err != nil {
		return fmt.Errorf("chatstore.DeleteChat: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("chatstore.DeleteChat: %w", err)
	}
	if n == 0 {
		return ErrChatNotFound
	}
	return nil
}

// GetMessages returns the chat's messages in chronological order.
func (s *Store) GetMessages(ctx context.Context, userID, chatID string) ([]Message, error) {
	if _, err := s.GetChat(ctx, userID, chatID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, chat_id, role, content, intent, created_at
		FROM messages WHERE chat_id = ?
		ORDER BY created_at, id`, chatID)
	if err != nil {
		return nil, fmt.Errorf("chatstore.GetMessages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var (
			m         Message
			role      string
			createdAt string
		)
		if err := rows.Scan(&m.ID, &m.ChatID, &role, &m.Content, &m.Intent, &createdAt); err != nil {
			return nil, fmt.Errorf("chatstore.GetMessages: scan: %w", err)
		}
		m.Role = chat.Role(role)
		m.CreatedAt = parseTime(createdAt)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("chatstore.GetMessages: %w", err)
	}
	return out, nil
}

// History converts a chat's stored messages into pipeline turns.
func (s *Store) History(ctx context.Context, userID, chatID string) ([]chat.Turn, error) {
	msgs, err := s.GetMessages(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	turns := make([]chat.Turn, len(msgs))
	for i, m := range msgs {
		turns[i] = chat.Turn{Role: m.Role, Text: m.Content, CreatedAt: m.CreatedAt}
	}
	return turns, nil
}

// AppendExchange stores a completed user/assistant exchange in one
// transaction and bumps the chat's updated_at. The routed intent is recorded
// on the assistant row. If the chat still has an empty title it is set from
// the user's query.
func (s *Store) AppendExchange(ctx context.Context, userID, chatID, query, response, intentLabel string) (*Message, error) {
	if _, err := s.GetChat(ctx, userID, chatID); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("chatstore.AppendExchange: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	userMsg := Message{
		ID:        uuid.NewV7().String(),
		ChatID:    chatID,
		Role:      chat.RoleUser,
		Content:   query,
		CreatedAt: now,
	}
	// The assistant row gets a strictly later timestamp so chronological
	// ordering never interleaves the pair.
	assistantMsg := Message{
		ID:        uuid.NewV7().String(),
		ChatID:    chatID,
		Role:      chat.RoleAssistant,
		Content:   response,
		Intent:    intentLabel,
		CreatedAt: now.Add(time.Millisecond),
	}

	for _, m := range []Message{userMsg, assistantMsg} {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO messages (id, chat_id, role, content, intent, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			m.ID, m.ChatID, string(m.Role), m.Content, m.Intent, fmtTime(m.CreatedAt),
		); err != nil {
			return nil, fmt.Errorf("chatstore.AppendExchange: insert %s message: %w", m.Role, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE chats SET updated_at = ?,
			title = CASE WHEN title = '' THEN ? ELSE title END
		WHERE id = ?`,
		fmtTime(now), truncateTitle(query), chatID,
	); err != nil {
		return nil, fmt.Errorf("chatstore.AppendExchange: touch chat: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("chatstore.AppendExchange: commit: %w", err)
	}
	return &assistantMsg, nil
}

// AddFeedback records a rating (+1/-1) on a message the user owns through
// its chat. Each message takes at most one feedback row.
func (s *Store) AddFeedback(ctx context.Context, userID, messageID string, rating int, comment string) (*Feedback, error) {
	if rating != 1 && rating != -1 {
		return nil, fmt.Errorf("chatstore.AddFeedback: rating must be 1 or -1, got %d", rating)
	}

	var owner string
	err := s.db.QueryRowContext(ctx, `
		SELECT c.user_id FROM messages m
		JOIN chats c ON c.id = m.chat_id
		WHERE m.id = ?`, messageID,
	).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && owner != userID) {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("chatstore.AddFeedback: %w", err)
	}

	now := time.Now().UTC()
	f := &Feedback{
		ID:        uuid.NewV7().String(),
		MessageID: messageID,
		Rating:    rating,
		Comment:   strings.TrimSpace(comment),
		CreatedAt: now,
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO message_feedback (id, message_id, rating, comment, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		f.ID, f.MessageID, f.Rating, f.Comment, fmtTime(now),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, ErrFeedbackExists
		}
		return nil, fmt.Errorf("chatstore.AddFeedback: %w", err)
	}
	return f, nil
}

func truncateTitle(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxTitleLen {
		return s[:maxTitleLen]
	}
	return s
}

// timeLayout is fixed-width so stored timestamps sort lexicographically.
// RFC3339Nano trims trailing zeros and breaks string ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func fmtTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
