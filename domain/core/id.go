package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// SessionID identifies one dashboard session (one browser tab, or a resumed one via cookie).
type SessionID uuid.UUID

// NewSessionID creates a new unique session identifier using UUID v7 for time-ordered generation
func NewSessionID() SessionID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return SessionID(id)
}

// ParseSessionID parses a string into SessionID
func ParseSessionID(s string) (SessionID, error) {
	if strings.TrimSpace(s) == "" {
		return SessionID{}, fmt.Errorf("session ID cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return SessionID{}, fmt.Errorf("invalid session ID %q: %w", s, err)
	}
	return SessionID(id), nil
}

// UUID returns the underlying UUID
func (id SessionID) UUID() uuid.UUID {
	return uuid.UUID(id)
}

// String returns the string representation
func (id SessionID) String() string {
	return uuid.UUID(id).String()
}

// IsEmpty checks if the ID is the zero UUID
func (id SessionID) IsEmpty() bool {
	return uuid.UUID(id) == uuid.Nil
}
