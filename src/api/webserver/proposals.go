package webserver

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/commonsdao/liquidvote/src/api/data"
	"github.com/commonsdao/liquidvote/src/api/types"
)

type Proposals struct {
	db        *gorm.DB
	cooldowns data.Cooldowns
}

func NewProposals(db *gorm.DB, cooldowns data.Cooldowns) Proposals {
	return Proposals{db: db, cooldowns: cooldowns}
}

type optionJSON struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

func (p Proposals) loadProposal(c *gin.Context) (*types.Proposal, []types.Option, bool) {
	id := c.Param("id")
	var prop types.Proposal
	if err := p.db.First(&prop, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"err": "proposal not found"})
		} else {
			log.Printf("proposal %s: %v", id, err)
			c.JSON(http.StatusInternalServerError, gin.H{"err": "database error"})
		}
		return nil, nil, false
	}
	var options []types.Option
	if err := p.db.Where("proposal_id = ?", id).Order("number").Find(&options).Error; err != nil {
		log.Printf("options %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "database error"})
		return nil, nil, false
	}
	return &prop, options, true
}

// Get returns the proposal with vote_results merged in once the deadline
// has passed; before that vote_results is null.
func (p Proposals) Get(c *gin.Context) {
	prop, options, ok := p.loadProposal(c)
	if !ok {
		return
	}

	opts := make([]optionJSON, 0, len(options))
	for _, o := range options {
		opts = append(opts, optionJSON{Number: o.Number, Text: o.Text})
	}

	var results *types.VoteResults
	if !prop.Deadline.After(time.Now()) {
		var err error
		results, err = data.ComputeResults(p.db, prop.ID)
		if err != nil {
			log.Printf("tally %s: %v", prop.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"err": "tally failed"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"id":              prop.ID,
		"category_id":     prop.CategoryID,
		"title":           prop.Title,
		"description":     prop.Description,
		"voting_deadline": prop.Deadline,
		"options":         opts,
		"vote_results":    results,
	})
}

// VotingStatus returns the caller's server-confirmed status for the
// proposal. This is the single source of truth the panel reconciles from.
func (p Proposals) VotingStatus(c *gin.Context) {
	prop, options, ok := p.loadProposal(c)
	if !ok {
		return
	}
	uid := c.GetString("uid")

	userStatus := gin.H{
		"has_voted":       false,
		"has_delegated":   false,
		"can_act":         false,
		"cooldown_active": false,
	}

	var vote types.Vote
	voteErr := p.db.First(&vote, "proposal_id = ? AND member_id = ?", prop.ID, uid).Error
	switch {
	case voteErr == nil:
		userStatus["has_voted"] = true
		userStatus["voted_option"] = vote.OptionNumber
	case !errors.Is(voteErr, gorm.ErrRecordNotFound):
		log.Printf("vote %s/%s: %v", uid, prop.ID, voteErr)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "database error"})
		return
	default:
		var del types.Delegation
		delErr := p.db.First(&del, "proposal_id = ? AND member_id = ?", prop.ID, uid).Error
		switch {
		case delErr == nil:
			var target types.Member
			if err := p.db.First(&target, "id = ?", del.TargetID).Error; err != nil {
				target = types.Member{ID: del.TargetID}
			}
			userStatus["has_delegated"] = true
			userStatus["delegate_info"] = gin.H{"unique_id": target.ID, "name": target.Name}
		case !errors.Is(delErr, gorm.ErrRecordNotFound):
			log.Printf("delegation %s/%s: %v", uid, prop.ID, delErr)
			c.JSON(http.StatusInternalServerError, gin.H{"err": "database error"})
			return
		}
	}

	cooldown, err := p.cooldowns.Active(c.Request.Context(), uid, prop.ID)
	if err != nil {
		log.Printf("cooldown %s/%s: %v", uid, prop.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "cooldown check failed"})
		return
	}
	userStatus["cooldown_active"] = cooldown

	remaining := time.Until(prop.Deadline)
	isActive := remaining > 0
	if remaining < 0 {
		remaining = 0
	}
	userStatus["can_act"] = isActive && !cooldown

	opts := make([]optionJSON, 0, len(options))
	for _, o := range options {
		opts = append(opts, optionJSON{Number: o.Number, Text: o.Text})
	}

	c.JSON(http.StatusOK, gin.H{
		"user_status":            userStatus,
		"is_active":              isActive,
		"time_remaining_seconds": int64(remaining.Seconds()),
		"options":                opts,
	})
}
