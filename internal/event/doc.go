// Package event defines the domain events pushed to live clients.
//
// Events are constructed by the business layer at the moment a message
// or task mutation commits and are immutable afterwards. The realtime
// layer only serializes and forwards them; durable storage is the
// business layer's job.
//
// Conventions:
//   - Event IDs: uuid.UUID
//   - User and project IDs: int64 (platform surrogate keys)
//   - Timestamps: WireTime, second granularity, UTC
package event
