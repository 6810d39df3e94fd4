package deadline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var now = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func TestClassifyAt(t *testing.T) {
	tests := []struct {
		name     string
		deadline time.Time
		want     Status
	}{
		{"deadline equal to now", now, StatusExpired},
		{"one second past", now.Add(-time.Second), StatusExpired},
		{"long past", now.Add(-30 * 24 * time.Hour), StatusExpired},
		{"one minute left", now.Add(time.Minute), StatusEndingSoon},
		{"one hour left", now.Add(time.Hour), StatusEndingSoon},
		{"exactly 24h left", now.Add(24 * time.Hour), StatusEndingSoon},
		{"just over 24h left", now.Add(24*time.Hour + time.Second), StatusActive},
		{"days left", now.Add(72 * time.Hour), StatusActive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyAt(tt.deadline, now))
		})
	}
}

func TestRemainingAt(t *testing.T) {
	tests := []struct {
		name     string
		deadline time.Time
		want     string
	}{
		{"ended", now.Add(-time.Minute), "Voting has ended"},
		{"ended exactly now", now, "Voting has ended"},
		{"days", now.Add(72 * time.Hour), "3 days left"},
		{"single day", now.Add(25 * time.Hour), "1 day left"},
		{"hours", now.Add(5 * time.Hour), "5 hours left"},
		{"single hour", now.Add(90 * time.Minute), "1 hour left"},
		{"minutes", now.Add(30 * time.Minute), "30 minutes left"},
		{"floors to one minute", now.Add(20 * time.Second), "1 minute left"},
		{"single minute", now.Add(time.Minute), "1 minute left"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RemainingAt(tt.deadline, now))
		})
	}
}

func TestCanCreateSuggestionsAt(t *testing.T) {
	tests := []struct {
		name     string
		deadline time.Time
		want     bool
	}{
		{"already expired", now.Add(-time.Hour), false},
		{"exactly 60 minutes", now.Add(60 * time.Minute), false},
		{"just over 60 minutes", now.Add(60*time.Minute + time.Second), true},
		{"days away", now.Add(48 * time.Hour), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanCreateSuggestionsAt(tt.deadline, now))
		})
	}
}
