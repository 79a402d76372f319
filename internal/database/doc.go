// Package database constructs the pgx connection pool shared by the
// identity resolver, membership oracle, and feed sources.
package database
