// Package feed implements the pull-based notification feed.
//
// The aggregator merges three differently-shaped stored-event
// collections (messages received, new projects, project status changes)
// into one time-ordered, paginated feed. Each request fetches all three
// sources in full and sorts and slices in memory; data volumes are
// small enough that pushing pagination to storage is not worth the
// contract change, and the Source interface isolates that decision.
package feed
