// Package deadline classifies proposal voting deadlines. All functions are
// pure; callers decide when to re-evaluate.
package deadline

import (
	"fmt"
	"time"
)

type Status int

const (
	StatusActive Status = iota
	StatusEndingSoon
	StatusExpired
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusEndingSoon:
		return "ending_soon"
	case StatusExpired:
		return "expired"
	}
	return "unknown"
}

const (
	endingSoonWindow = 24 * time.Hour
	// Suggestion authorship closes before voting does, so a suggestion is
	// never published with too little time left to act on it.
	suggestionCutoff = 60 * time.Minute
)

// ClassifyAt maps a deadline to a status relative to now. A deadline equal
// to now counts as expired.
func ClassifyAt(dl, now time.Time) Status {
	remaining := dl.Sub(now)
	switch {
	case remaining <= 0:
		return StatusExpired
	case remaining <= endingSoonWindow:
		return StatusEndingSoon
	default:
		return StatusActive
	}
}

func Classify(dl time.Time) Status {
	return ClassifyAt(dl, time.Now())
}

// RemainingAt renders the time left as a human string. While the deadline is
// in the future the value never drops below "1 minute left".
func RemainingAt(dl, now time.Time) string {
	remaining := dl.Sub(now)
	if remaining <= 0 {
		return "Voting has ended"
	}
	if days := int(remaining.Hours() / 24); days >= 1 {
		return fmt.Sprintf("%d %s left", days, plural(days, "day"))
	}
	if hours := int(remaining.Hours()); hours >= 1 {
		return fmt.Sprintf("%d %s left", hours, plural(hours, "hour"))
	}
	minutes := int(remaining.Minutes())
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("%d %s left", minutes, plural(minutes, "minute"))
}

func Remaining(dl time.Time) string {
	return RemainingAt(dl, time.Now())
}

// CanCreateSuggestionsAt reports whether the deadline is strictly more than
// 60 minutes away. Exactly 60 minutes counts as closed.
func CanCreateSuggestionsAt(dl, now time.Time) bool {
	return dl.Sub(now) > suggestionCutoff
}

func CanCreateSuggestions(dl time.Time) bool {
	return CanCreateSuggestionsAt(dl, time.Now())
}

func plural(n int, unit string) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}
