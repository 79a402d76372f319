package realtime

import (
	"context"
	"log/slog"

	"github.com/teamforge/realtime/internal/event"
	"github.com/teamforge/realtime/internal/identity"
	"github.com/teamforge/realtime/internal/registry"
)

// Category names one of the three realtime endpoints.
type Category string

const (
	// CategoryNotify carries direct messages to their recipient.
	CategoryNotify Category = "notify"

	// CategoryMessage carries project chat messages to members.
	CategoryMessage Category = "message"

	// CategoryTask carries project task updates to members.
	CategoryTask Category = "task"
)

// Categories lists all valid endpoint categories.
func Categories() []Category {
	return []Category{CategoryNotify, CategoryMessage, CategoryTask}
}

// Hub owns the three category routers and exposes the event injection
// entry points the business layer calls after it has durably stored an
// event. Delivery here is a best-effort live notification on top of
// that durable write.
type Hub struct {
	notify  *Router
	message *Router
	task    *Router

	oracle identity.Oracle
	logger *slog.Logger
}

// NewHub creates a hub with one registry and router per category.
func NewHub(resolver identity.Resolver, oracle identity.Oracle, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		notify:  NewRouter(string(CategoryNotify), registry.New(logger), resolver, logger),
		message: NewRouter(string(CategoryMessage), registry.New(logger), resolver, logger),
		task:    NewRouter(string(CategoryTask), registry.New(logger), resolver, logger),
		oracle:  oracle,
		logger:  logger,
	}
}

// Registry returns the session registry for a category, or false for an
// unknown category.
func (h *Hub) Registry(cat Category) (*registry.Registry, bool) {
	switch cat {
	case CategoryNotify:
		return h.notify.Registry(), true
	case CategoryMessage:
		return h.message.Registry(), true
	case CategoryTask:
		return h.task.Registry(), true
	default:
		return nil, false
	}
}

// DeliverDirectMessage pushes a direct message to the recipient's live
// notify connections.
func (h *Hub) DeliverDirectMessage(ctx context.Context, e event.DirectMessage) error {
	return h.notify.Deliver(ctx, e, func(_ context.Context, userID int64, _ event.Event) (bool, error) {
		return userID == e.ReceiverID, nil
	})
}

// DeliverProjectMessage pushes a project chat message to every live
// message connection whose user belongs to the project.
func (h *Hub) DeliverProjectMessage(ctx context.Context, e event.ProjectMessage) error {
	return h.message.Deliver(ctx, e, func(ctx context.Context, userID int64, _ event.Event) (bool, error) {
		return h.oracle.IsMember(ctx, userID, e.ProjectID)
	})
}

// DeliverProjectTaskUpdate pushes a task update to every live task
// connection whose user belongs to the project.
func (h *Hub) DeliverProjectTaskUpdate(ctx context.Context, e event.ProjectTask) error {
	return h.task.Deliver(ctx, e, func(ctx context.Context, userID int64, _ event.Event) (bool, error) {
		return h.oracle.IsMember(ctx, userID, e.ProjectID)
	})
}

// CloseAll tears down every live connection across all categories.
// Used during shutdown.
func (h *Hub) CloseAll() {
	for _, cat := range Categories() {
		reg, _ := h.Registry(cat)
		for _, entry := range reg.Snapshot() {
			entry.Conn.Close()
		}
	}
}

// Stats reports live connection counts per category.
func (h *Hub) Stats() map[Category]int {
	stats := make(map[Category]int, 3)
	for _, cat := range Categories() {
		reg, _ := h.Registry(cat)
		stats[cat] = reg.Len()
	}
	return stats
}
