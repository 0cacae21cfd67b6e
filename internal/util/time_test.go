package util

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestFormatTimestamp(t *testing.T) {
	seoul := time.FixedZone("KST", 9*60*60)

	tests := []struct {
		name string
		iso  string
		loc  *time.Location
		want string
	}{
		{"UTC", "2026-03-01T01:02:03Z", time.UTC, "2026-03-01 01:02"},
		{"converted to zone", "2026-03-01T23:30:00Z", seoul, "2026-03-02 08:30"},
		{"fractional seconds", "2026-03-01T01:02:03.456Z", time.UTC, "2026-03-01 01:02"},
		{"invalid returned as is", "not-a-date", time.UTC, "not-a-date"},
		{"empty", "", time.UTC, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatTimestamp(tt.iso, tt.loc); got != tt.want {
				t.Errorf("FormatTimestamp(%q) = %q, want %q", tt.iso, got, tt.want)
			}
		})
	}
}

func TestNewID(t *testing.T) {
	prev := ""
	for i := 0; i < 5000; i++ {
		id := NewID()
		u, err := uuid.Parse(id)
		if err != nil {
			t.Fatalf("NewID() = %q: %v", id, err)
		}
		if u.Version() != 7 {
			t.Fatalf("NewID() version = %d, want 7", u.Version())
		}
		if id <= prev {
			t.Fatalf("NewID() not increasing: %q after %q", id, prev)
		}
		prev = id
	}
}
