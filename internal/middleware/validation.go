package middleware

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// ValidateMessageText validates user message text.
func ValidateMessageText(text string) error {
	if strings.TrimSpace(text) == "" {
		return errors.New("text cannot be empty")
	}
	if len(text) > 100000 { // ~100KB limit
		return errors.New("text exceeds maximum length")
	}
	if !utf8.ValidString(text) {
		return errors.New("text must be valid UTF-8")
	}
	return nil
}

// ValidateLocale validates a BCP 47 locale tag of the shape the speech
// adapters accept (language, optionally language-REGION).
func ValidateLocale(tag string) error {
	if tag == "" {
		return errors.New("locale cannot be empty")
	}
	if len(tag) > 16 {
		return errors.New("locale exceeds maximum length")
	}
	parts := strings.Split(tag, "-")
	if len(parts) > 2 {
		return errors.New("invalid locale format")
	}
	for _, part := range parts {
		if part == "" {
			return errors.New("invalid locale format")
		}
		for _, r := range part {
			if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
				return errors.New("invalid locale format")
			}
		}
	}
	return nil
}

// ValidateUsername validates a username for the auth endpoints.
func ValidateUsername(username string) error {
	if strings.TrimSpace(username) == "" {
		return errors.New("username cannot be empty")
	}
	if len(username) > 64 {
		return errors.New("username exceeds maximum length")
	}
	if !utf8.ValidString(username) {
		return errors.New("username must be valid UTF-8")
	}
	return nil
}
