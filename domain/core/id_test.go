package core

import (
	"testing"
)

// TestNewSessionIDUniqueness tests that NewSessionID generates unique identifiers
func TestNewSessionIDUniqueness(t *testing.T) {
	const numIDs = 1000

	ids := make(map[SessionID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewSessionID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}
}

func TestParseSessionID(t *testing.T) {
	id := NewSessionID()

	parsed, err := ParseSessionID(id.String())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if parsed != id {
		t.Errorf("Expected %s, got %s", id, parsed)
	}

	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"not a uuid", "aberdeen-south"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseSessionID(tt.input); err == nil {
				t.Errorf("Expected error for %q, got nil", tt.input)
			}
		})
	}
}
