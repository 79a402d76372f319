package event

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Kind discriminates event categories on the wire.
type Kind string

const (
	KindDirectMessage  Kind = "direct_message"
	KindProjectMessage Kind = "project_message"
	KindProjectTask    Kind = "project_task"
)

// Event is a domain event deliverable to live clients.
type Event interface {
	// EventKind returns the wire discriminator.
	EventKind() Kind
}

// DirectMessage is a one-to-one message between two users.
type DirectMessage struct {
	ID         uuid.UUID `json:"id"`
	SenderID   int64     `json:"sender_id"`
	ReceiverID int64     `json:"receiver_id"`
	Content    string    `json:"content"`
	SentAt     WireTime  `json:"sent_at"`
}

// EventKind implements Event.
func (DirectMessage) EventKind() Kind { return KindDirectMessage }

// ProjectMessage is a chat message broadcast to a project's members.
type ProjectMessage struct {
	ID        uuid.UUID `json:"id"`
	ProjectID int64     `json:"project_id"`
	SenderID  int64     `json:"sender_id"`
	Content   string    `json:"content"`
	SentAt    WireTime  `json:"sent_at"`
}

// EventKind implements Event.
func (ProjectMessage) EventKind() Kind { return KindProjectMessage }

// ProjectTask is a task change broadcast to a project's members.
type ProjectTask struct {
	ID        uuid.UUID `json:"id"`
	ProjectID int64     `json:"project_id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	UpdatedAt WireTime  `json:"updated_at"`
}

// EventKind implements Event.
func (ProjectTask) EventKind() Kind { return KindProjectTask }

// envelope is the wire frame: a kind discriminator plus the event body.
type envelope struct {
	Type Kind            `json:"type"`
	Msg  json.RawMessage `json:"msg"`
}

// Marshal serializes an event to its wire representation.
func Marshal(e Event) ([]byte, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal %s body: %w", e.EventKind(), err)
	}
	data, err := json.Marshal(envelope{Type: e.EventKind(), Msg: body})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", e.EventKind(), err)
	}
	return data, nil
}

// Unmarshal parses a wire frame back into its concrete event type.
func Unmarshal(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	switch env.Type {
	case KindDirectMessage:
		var e DirectMessage
		if err := json.Unmarshal(env.Msg, &e); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", env.Type, err)
		}
		return e, nil
	case KindProjectMessage:
		var e ProjectMessage
		if err := json.Unmarshal(env.Msg, &e); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", env.Type, err)
		}
		return e, nil
	case KindProjectTask:
		var e ProjectTask
		if err := json.Unmarshal(env.Msg, &e); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", env.Type, err)
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", env.Type)
	}
}
