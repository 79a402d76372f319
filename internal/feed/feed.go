package feed

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"

	"github.com/teamforge/realtime/internal/event"
)

// Kind names a feed source.
type Kind string

const (
	KindMessageReceived     Kind = "message_received"
	KindNewProject          Kind = "new_project"
	KindProjectStatusChange Kind = "project_status_change"
)

// Entry is one unit of the notification feed.
type Entry struct {
	Kind    Kind            `json:"kind"`
	SentAt  event.WireTime  `json:"sent_at"`
	Payload json.RawMessage `json:"payload"`
}

// Source fetches all stored events of one kind addressed to a user.
type Source interface {
	Kind() Kind
	Fetch(ctx context.Context, userID int64) ([]Entry, error)
}

// ErrInvalidPageSize is returned for a non-positive page size, which is
// a caller contract violation.
var ErrInvalidPageSize = errors.New("page size must be >= 1")

// Aggregator merges feed sources into one paginated feed.
type Aggregator struct {
	sources []Source
	logger  *slog.Logger
}

// NewAggregator creates an aggregator over the given sources. Merge
// order on timestamp ties follows source order, so pass sources in a
// fixed order.
func NewAggregator(logger *slog.Logger, sources ...Source) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{sources: sources, logger: logger}
}

// Feed returns page `page` (zero-based) of the user's merged feed,
// newest first, at most pageSize entries.
//
// A source failure degrades that source to empty rather than failing
// the call; the feed is best effort and partial results beat none.
// Negative or past-the-end pages yield an empty feed.
func (a *Aggregator) Feed(ctx context.Context, userID int64, page, pageSize int) ([]Entry, error) {
	if pageSize <= 0 {
		return nil, ErrInvalidPageSize
	}

	var all []Entry
	for _, src := range a.sources {
		entries, err := src.Fetch(ctx, userID)
		if err != nil {
			a.logger.Warn("feed source unavailable",
				"kind", src.Kind(),
				"user_id", userID,
				"error", err,
			)
			continue
		}
		all = append(all, entries...)
	}

	// Stable keeps source order deterministic on equal timestamps.
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].SentAt.After(all[j].SentAt.Time)
	})

	if page < 0 {
		return []Entry{}, nil
	}
	from := page * pageSize
	if from >= len(all) {
		return []Entry{}, nil
	}
	to := from + pageSize
	if to > len(all) {
		to = len(all)
	}
	return all[from:to], nil
}
