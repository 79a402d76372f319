package realtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/teamforge/realtime/internal/event"
	"github.com/teamforge/realtime/internal/identity"
	"github.com/teamforge/realtime/internal/registry"
)

// Predicate decides whether a resolved user should receive an event.
type Predicate func(ctx context.Context, userID int64, e event.Event) (bool, error)

// Router fans one event out to the matching subset of a registry's live
// connections. One Router exists per event category; all three share
// this implementation.
type Router struct {
	category string
	registry *registry.Registry
	resolver identity.Resolver
	logger   *slog.Logger
}

// NewRouter creates a router over the given registry.
func NewRouter(category string, reg *registry.Registry, resolver identity.Resolver, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		category: category,
		registry: reg,
		resolver: resolver,
		logger:   logger.With("category", category),
	}
}

// Registry returns the session registry this router delivers to.
func (r *Router) Registry() *registry.Registry {
	return r.registry
}

// Deliver serializes e once and pushes it to every live connection
// whose resolved identity satisfies match.
//
// A serialization failure is a producer bug and fails the call.
// Everything past that point is best effort: closed sockets, expired
// tokens, predicate errors, and write failures each skip a single
// connection and the pass continues.
func (r *Router) Deliver(ctx context.Context, e event.Event, match Predicate) error {
	payload, err := event.Marshal(e)
	if err != nil {
		return fmt.Errorf("deliver %s: %w", e.EventKind(), err)
	}

	entries := r.registry.Snapshot()
	delivered := 0

	for _, entry := range entries {
		if !entry.Conn.IsOpen() {
			continue
		}

		userID, err := r.resolver.Resolve(ctx, entry.Token)
		if err != nil {
			// An expired token on a live socket is not an error for the
			// delivery; the connection stays registered until its own
			// close or idle timeout fires.
			if !errors.Is(err, identity.ErrUnknownToken) {
				r.logger.Warn("identity resolution failed", "error", err)
			}
			continue
		}

		ok, err := match(ctx, userID, e)
		if err != nil {
			r.logger.Warn("targeting predicate failed",
				"user_id", userID,
				"error", err,
			)
			continue
		}
		if !ok {
			continue
		}

		if err := entry.Conn.Send(payload); err != nil {
			r.logger.Warn("delivery to connection failed",
				"user_id", userID,
				"error", err,
			)
			continue
		}
		delivered++
	}

	r.logger.Debug("event delivered",
		"type", e.EventKind(),
		"candidates", len(entries),
		"delivered", delivered,
	)

	return nil
}
