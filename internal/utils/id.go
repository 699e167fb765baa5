package utils

import "github.com/google/uuid"

// NewID returns a unique identifier for events and sessions.
func NewID() string {
	return uuid.NewString()
}
