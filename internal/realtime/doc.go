// Package realtime implements the live event fan-out layer.
//
// A Hub owns three category registries (direct notifications, project
// chat, project tasks), each paired with a Router. Producers in the
// business layer hand the Hub a fully constructed domain event; the
// Router serializes it once, snapshots the category's Session Registry,
// and pushes the payload to every connection whose resolved identity
// matches the event's targeting predicate.
//
// Delivery is fire and forget. A dead socket, an expired token, or a
// failed membership lookup skips that one connection and never aborts
// the pass.
package realtime
