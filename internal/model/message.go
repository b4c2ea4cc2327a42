// Package model defines data structures for the assistant platform.
package model

import (
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleUser   Role = "user"
	RoleModel  Role = "model"
	RoleSystem Role = "system"
)

// SearchResult is a cited source attached to a search-augmented answer.
type SearchResult struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// Message represents a single entry in a user's conversation log.
// Messages are immutable once appended.
type Message struct {
	ID            string         `json:"id"`
	Username      string         `json:"username"`
	Role          Role           `json:"role"`
	Text          string         `json:"text,omitempty"`
	ImageURL      string         `json:"image_url,omitempty"`
	SearchResults []SearchResult `json:"search_results,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	Sequence      uint64         `json:"sequence"`
}

// Part is a single text fragment of a history entry.
type Part struct {
	Text string `json:"text"`
}

// HistoryEntry is the wire representation of a past message sent as
// context on the next remote call.
type HistoryEntry struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// SendMessageRequest is the request to run a conversational turn.
type SendMessageRequest struct {
	Text  string `json:"text"`
	Speak bool   `json:"speak,omitempty"`
}

// SendMessageResponse is the response after a completed turn.
type SendMessageResponse struct {
	Message *Message `json:"message"`
}

// ListMessagesResponse is the response for listing the session log.
type ListMessagesResponse struct {
	Messages     []Message `json:"messages"`
	LastSequence uint64    `json:"last_sequence"`
}
