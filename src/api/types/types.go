package types

import "time"

// Organization members
type Member struct {
	ID   string `gorm:"primaryKey;size:64"`
	Name string `gorm:"size:128;not null"`
}

// Categories group proposals; the creator may publish suggestions for
// proposals they created.
type Category struct {
	ID        string `gorm:"primaryKey;size:64"`
	Title     string `gorm:"size:255;not null"`
	CreatedBy string `gorm:"size:64;index;not null"`
	CreatedAt time.Time
}

// Proposals
type Proposal struct {
	ID          string `gorm:"primaryKey;size:64"`
	CategoryID  string `gorm:"size:64;index"`
	Title       string `gorm:"size:255;not null"`
	Description string `gorm:"type:text"`
	CreatedBy   string `gorm:"size:64;not null"`
	Deadline    time.Time
	CreatedAt   time.Time
}

// Proposal options, ordered by number
type Option struct {
	ID         uint64 `gorm:"primaryKey"`
	ProposalID string `gorm:"size:64;index;not null"`
	Number     int    `gorm:"not null"`
	Text       string `gorm:"size:255;not null"`
}

// Direct votes; one row per member and proposal, overwritten on re-vote.
// A vote and a delegation never coexist for the same member and proposal.
type Vote struct {
	ID           uint64 `gorm:"primaryKey"`
	ProposalID   string `gorm:"size:64;index;not null"`
	MemberID     string `gorm:"size:64;index;not null"`
	OptionNumber int    `gorm:"not null"`
	CreatedAt    time.Time
}

// Delegations; one row per member and proposal.
type Delegation struct {
	ID         uint64 `gorm:"primaryKey"`
	ProposalID string `gorm:"size:64;index;not null"`
	MemberID   string `gorm:"size:64;index;not null"`
	TargetID   string `gorm:"size:64;not null"`
	CreatedAt  time.Time
}

// Suggestions published by category owners
type Suggestion struct {
	ID           string `gorm:"primaryKey;size:64"`
	ProposalID   string `gorm:"size:64;index;not null"`
	CategoryID   string `gorm:"size:64;not null"`
	Type         string `gorm:"column:suggestion_type;size:16;not null"` // vote_option | delegate
	TargetOption int
	TargetUser   string `gorm:"size:64"`
	Reason       string `gorm:"type:text"`
	CreatedBy    string `gorm:"size:64;not null"`
	CreatedAt    time.Time
}

// OptionTally is one aggregated option count inside VoteResults.
type OptionTally struct {
	Number int `json:"number"`
	Votes  int `json:"votes"`
}

// VoteResults is the aggregate the panel consumes opaquely. WinningOption is
// null on a tie or when nobody voted.
type VoteResults struct {
	Options           []OptionTally `json:"options"`
	TotalParticipants int           `json:"total_participants"`
	TotalDirectVoters int           `json:"total_direct_voters"`
	WinningOption     *int          `json:"winning_option"`
}
