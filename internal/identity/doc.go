// Package identity resolves connection tokens to users and answers
// project-membership questions.
//
// Both lookups are synchronous database round trips against the
// platform's sessions and project_members tables. The realtime layer
// never mints or validates tokens beyond these lookups.
package identity
