// Package registry implements the Session Registry: a process-wide,
// thread-safe map from session token to live connection.
//
// The registry owns connection lifecycle. Entries are created on socket
// open and removed on close (graceful, error, or idle timeout). At most
// one live entry exists per token; a reconnect with the same token
// replaces the prior entry.
package registry
