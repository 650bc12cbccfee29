package models

import "time"

// ChatRole identifies the author of a chat message.
type ChatRole int

const (
	// RoleUser marks a message typed by the user.
	RoleUser ChatRole = iota
	// RoleAssistant marks a response returned by the remote assistant.
	RoleAssistant
	// RoleSystem marks locally generated status text (blocked notices, errors).
	RoleSystem
)

// ChatMessage is one entry in the conversation transcript.
type ChatMessage struct {
	Timestamp time.Time
	Text      string
	Role      ChatRole
}

// QueryResult is what the gateway hands back to the UI for one query attempt.
type QueryResult struct {
	// Response is the assistant's reply text; empty when Blocked.
	Response string
	// Message is the user-facing text for a blocked attempt.
	Message string
	// Usage is the usage digest after the attempt.
	Usage UsageSummary
	// Blocked is true when the local pre-check stopped the query before any
	// network call.
	Blocked bool
}
