// Package suggestion classifies category-owner suggestions against the
// user's confirmed voting status.
package suggestion

import (
	"sort"
	"time"

	"github.com/commonsdao/liquidvote/src/panel/deadline"
	"github.com/commonsdao/liquidvote/src/panel/status"
)

const (
	TypeVoteOption = "vote_option"
	TypeDelegate   = "delegate"
)

// Suggestion is a non-binding recommendation published by a category owner.
// Exactly one of TargetOption / TargetUser is meaningful, per Type.
type Suggestion struct {
	ID           string    `json:"id"`
	Type         string    `json:"suggestion_type"`
	TargetOption int       `json:"target_option_number,omitempty"`
	TargetUser   string    `json:"target_user,omitempty"`
	CategoryID   string    `json:"category_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsApplied reports whether the user's confirmed status already matches the
// suggestion. An unknown status never matches: a false "Applied" badge is
// worse than a missing one.
func IsApplied(s Suggestion, snap status.Snapshot) bool {
	if !snap.Known {
		return false
	}
	switch s.Type {
	case TypeVoteOption:
		return snap.HasVoted && snap.VotedOption == s.TargetOption
	case TypeDelegate:
		return snap.HasDelegated && snap.Delegate.ID == s.TargetUser
	}
	return false
}

// CanApply reports whether the suggestion's action control should be
// enabled: proposal still open, status confirmed, no cooldown, and not
// already applied. An applied suggestion stays disabled even after a
// cooldown clears.
func CanApply(s Suggestion, snap status.Snapshot, ds deadline.Status) bool {
	if ds == deadline.StatusExpired {
		return false
	}
	if !snap.Known || snap.CooldownActive {
		return false
	}
	return !IsApplied(s, snap)
}

// Sort orders a suggestion list for display: vote suggestions before
// delegation suggestions, newest first within each type.
func Sort(list []Suggestion) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Type != list[j].Type {
			return list[i].Type == TypeVoteOption
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}
