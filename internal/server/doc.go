// Package server exposes the service's HTTP surface: the three
// websocket endpoints (/realtime/{category}/{token}), the paginated
// notification feed, and a health check.
package server
