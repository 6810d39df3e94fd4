package data

import (
	"sort"

	"gorm.io/gorm"

	"github.com/commonsdao/liquidvote/src/api/types"
)

// ComputeResults aggregates direct votes and transitively resolved
// delegations into the proposal's vote_results. A delegation chain that
// never reaches a direct voter, or that loops, contributes nothing.
func ComputeResults(db *gorm.DB, proposalID string) (*types.VoteResults, error) {
	var votes []types.Vote
	if err := db.Where("proposal_id = ?", proposalID).Find(&votes).Error; err != nil {
		return nil, err
	}
	var delegations []types.Delegation
	if err := db.Where("proposal_id = ?", proposalID).Find(&delegations).Error; err != nil {
		return nil, err
	}
	var options []types.Option
	if err := db.Where("proposal_id = ?", proposalID).Order("number").Find(&options).Error; err != nil {
		return nil, err
	}

	voted := make(map[string]int, len(votes))
	for _, v := range votes {
		voted[v.MemberID] = v.OptionNumber
	}
	delegated := make(map[string]string, len(delegations))
	for _, d := range delegations {
		delegated[d.MemberID] = d.TargetID
	}

	tally := make(map[int]int)
	participants := 0
	for _, option := range voted {
		tally[option]++
		participants++
	}

	for member := range delegated {
		if option, ok := resolveDelegation(member, voted, delegated); ok {
			tally[option]++
			participants++
		}
	}

	results := &types.VoteResults{
		Options:           make([]types.OptionTally, 0, len(options)),
		TotalParticipants: participants,
		TotalDirectVoters: len(votes),
	}
	for _, o := range options {
		results.Options = append(results.Options, types.OptionTally{Number: o.Number, Votes: tally[o.Number]})
	}
	// Options outside the declared list should not exist, but tally them
	// anyway rather than silently dropping votes.
	for number := range tally {
		if !hasOption(options, number) {
			results.Options = append(results.Options, types.OptionTally{Number: number, Votes: tally[number]})
		}
	}
	sort.Slice(results.Options, func(i, j int) bool {
		return results.Options[i].Number < results.Options[j].Number
	})

	results.WinningOption = winner(results.Options)
	return results, nil
}

// resolveDelegation follows the chain from member until it reaches a direct
// voter. Revisiting a member ends the chain with no contribution.
func resolveDelegation(member string, voted map[string]int, delegated map[string]string) (int, bool) {
	seen := map[string]bool{member: true}
	current := member
	for {
		target, ok := delegated[current]
		if !ok {
			return 0, false
		}
		if option, ok := voted[target]; ok {
			return option, true
		}
		if seen[target] {
			return 0, false
		}
		seen[target] = true
		current = target
	}
}

// winner returns the uniquely highest-scoring option, or nil on a tie or
// when nobody voted.
func winner(tallies []types.OptionTally) *int {
	best, bestVotes, tie := 0, 0, false
	for _, t := range tallies {
		switch {
		case t.Votes > bestVotes:
			best, bestVotes, tie = t.Number, t.Votes, false
		case t.Votes == bestVotes && t.Votes > 0:
			tie = true
		}
	}
	if bestVotes == 0 || tie {
		return nil
	}
	return &best
}

func hasOption(options []types.Option, number int) bool {
	for _, o := range options {
		if o.Number == number {
			return true
		}
	}
	return false
}
