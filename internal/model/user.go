package model

import "time"

// User is the authenticated identity held for the session lifetime.
type User struct {
	Username string `json:"username"`
}

// Credentials is the request body for signup and login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Session pairs the authenticated user with its bearer token.
type Session struct {
	User  User   `json:"user"`
	Token string `json:"token,omitempty"`
}

// SessionRecord is the persisted "current user" marker.
type SessionRecord struct {
	Username string    `json:"username"`
	IssuedAt time.Time `json:"issued_at"`
}
