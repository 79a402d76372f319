// Package config loads and validates YAML configuration for the
// realtime service.
//
// Loading is split into three stages: Load parses the file (with ${VAR}
// environment expansion), applyDefaults fills optional fields, and
// Validate rejects incomplete or inconsistent configs. Callers normally
// use LoadAndValidate.
package config
