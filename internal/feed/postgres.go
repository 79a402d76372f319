package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/teamforge/realtime/internal/event"
)

// MessageSource reads direct messages received by a user.
type MessageSource struct {
	db *pgxpool.Pool
}

// NewMessageSource creates the message-received feed source.
func NewMessageSource(db *pgxpool.Pool) *MessageSource {
	return &MessageSource{db: db}
}

// Kind implements Source.
func (s *MessageSource) Kind() Kind { return KindMessageReceived }

type messagePayload struct {
	SenderID   int64  `json:"sender_id"`
	SenderName string `json:"sender_name"`
	Content    string `json:"content"`
}

// Fetch implements Source.
func (s *MessageSource) Fetch(ctx context.Context, userID int64) ([]Entry, error) {
	const q = `
		SELECT m.sender_id, u.display_name, m.content, m.sent_at
		FROM messages m
		JOIN users u ON u.id = m.sender_id
		WHERE m.receiver_id = $1`

	rows, err := s.db.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var p messagePayload
		var sentAt time.Time
		if err := rows.Scan(&p.SenderID, &p.SenderName, &p.Content, &sentAt); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		entries = append(entries, newEntry(KindMessageReceived, sentAt, p))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read message rows: %w", err)
	}
	return entries, nil
}

// ProjectSource reads projects the user has been added to.
type ProjectSource struct {
	db *pgxpool.Pool
}

// NewProjectSource creates the new-project feed source.
func NewProjectSource(db *pgxpool.Pool) *ProjectSource {
	return &ProjectSource{db: db}
}

// Kind implements Source.
func (s *ProjectSource) Kind() Kind { return KindNewProject }

type projectPayload struct {
	ProjectID   int64  `json:"project_id"`
	ProjectName string `json:"project_name"`
}

// Fetch implements Source.
func (s *ProjectSource) Fetch(ctx context.Context, userID int64) ([]Entry, error) {
	const q = `
		SELECT p.id, p.name, pm.added_at
		FROM projects p
		JOIN project_members pm ON pm.project_id = p.id
		WHERE pm.user_id = $1`

	rows, err := s.db.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var p projectPayload
		var addedAt time.Time
		if err := rows.Scan(&p.ProjectID, &p.ProjectName, &addedAt); err != nil {
			return nil, fmt.Errorf("scan project row: %w", err)
		}
		entries = append(entries, newEntry(KindNewProject, addedAt, p))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read project rows: %w", err)
	}
	return entries, nil
}

// StatusSource reads status changes of the user's projects.
type StatusSource struct {
	db *pgxpool.Pool
}

// NewStatusSource creates the project-status-change feed source.
func NewStatusSource(db *pgxpool.Pool) *StatusSource {
	return &StatusSource{db: db}
}

// Kind implements Source.
func (s *StatusSource) Kind() Kind { return KindProjectStatusChange }

type statusPayload struct {
	ProjectID int64  `json:"project_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}

// Fetch implements Source.
func (s *StatusSource) Fetch(ctx context.Context, userID int64) ([]Entry, error) {
	const q = `
		SELECT c.project_id, c.old_status, c.new_status, c.changed_at
		FROM project_status_changes c
		JOIN project_members pm ON pm.project_id = c.project_id
		WHERE pm.user_id = $1`

	rows, err := s.db.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("query status changes: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var p statusPayload
		var changedAt time.Time
		if err := rows.Scan(&p.ProjectID, &p.OldStatus, &p.NewStatus, &changedAt); err != nil {
			return nil, fmt.Errorf("scan status row: %w", err)
		}
		entries = append(entries, newEntry(KindProjectStatusChange, changedAt, p))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read status rows: %w", err)
	}
	return entries, nil
}

// newEntry builds a feed entry; payload marshaling of the flat payload
// structs above cannot fail.
func newEntry(kind Kind, at time.Time, payload any) Entry {
	body, _ := json.Marshal(payload)
	return Entry{
		Kind:    kind,
		SentAt:  event.At(at),
		Payload: body,
	}
}
