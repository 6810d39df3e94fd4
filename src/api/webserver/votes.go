package webserver

import (
	"errors"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/commonsdao/liquidvote/src/api/data"
	"github.com/commonsdao/liquidvote/src/api/types"
)

type Votes struct {
	db        *gorm.DB
	cooldowns data.Cooldowns
}

func NewVotes(db *gorm.DB, cooldowns data.Cooldowns) Votes {
	return Votes{db: db, cooldowns: cooldowns}
}

// Cast records a direct vote. Re-voting overwrites; any delegation for the
// same proposal is cleared in the same transaction.
func (v Votes) Cast(c *gin.Context) {
	var req struct {
		OptionNumber *int `json:"option_number" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	prop, ok := v.openProposal(c)
	if !ok {
		return
	}

	var option types.Option
	if err := v.db.First(&option, "proposal_id = ? AND number = ?", prop.ID, *req.OptionNumber).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid option"})
		return
	}

	uid := c.GetString("uid")
	if !v.touchCooldown(c, uid, prop.ID) {
		return
	}

	err := v.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("proposal_id = ? AND member_id = ?", prop.ID, uid).Delete(&types.Delegation{}).Error; err != nil {
			return err
		}
		if err := tx.Where("proposal_id = ? AND member_id = ?", prop.ID, uid).Delete(&types.Vote{}).Error; err != nil {
			return err
		}
		return tx.Create(&types.Vote{
			ProposalID:   prop.ID,
			MemberID:     uid,
			OptionNumber: *req.OptionNumber,
		}).Error
	})
	if err != nil {
		log.Printf("cast vote %s/%s: %v", uid, prop.ID, err)
		v.releaseCooldown(c, uid, prop.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "failed to record vote"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Delegate assigns the caller's vote to another member. Self-delegation and
// cycles are rejected; a direct vote for the same proposal is cleared in the
// same transaction.
func (v Votes) Delegate(c *gin.Context) {
	var req struct {
		TargetUser string `json:"target_user" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	prop, ok := v.openProposal(c)
	if !ok {
		return
	}

	uid := c.GetString("uid")
	if req.TargetUser == uid {
		c.JSON(http.StatusBadRequest, gin.H{"err": "self delegation not allowed"})
		return
	}

	var target types.Member
	if err := v.db.First(&target, "id = ?", req.TargetUser).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"err": "target not found"})
		} else {
			log.Printf("delegate target %s: %v", req.TargetUser, err)
			c.JSON(http.StatusInternalServerError, gin.H{"err": "database error"})
		}
		return
	}

	if v.wouldCycle(prop.ID, uid, req.TargetUser) {
		c.JSON(http.StatusBadRequest, gin.H{"err": "delegation cycle not allowed"})
		return
	}

	if !v.touchCooldown(c, uid, prop.ID) {
		return
	}

	err := v.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("proposal_id = ? AND member_id = ?", prop.ID, uid).Delete(&types.Vote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("proposal_id = ? AND member_id = ?", prop.ID, uid).Delete(&types.Delegation{}).Error; err != nil {
			return err
		}
		return tx.Create(&types.Delegation{
			ProposalID: prop.ID,
			MemberID:   uid,
			TargetID:   req.TargetUser,
		}).Error
	})
	if err != nil {
		log.Printf("delegate %s/%s: %v", uid, prop.ID, err)
		v.releaseCooldown(c, uid, prop.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "failed to record delegation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// openProposal loads the proposal and rejects the request with 410 when the
// voting period has ended.
func (v Votes) openProposal(c *gin.Context) (*types.Proposal, bool) {
	var prop types.Proposal
	if err := v.db.First(&prop, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"err": "proposal not found"})
		} else {
			log.Printf("proposal %s: %v", c.Param("id"), err)
			c.JSON(http.StatusInternalServerError, gin.H{"err": "database error"})
		}
		return nil, false
	}
	if !prop.Deadline.After(time.Now()) {
		c.JSON(http.StatusGone, gin.H{"err": "voting period has ended"})
		return nil, false
	}
	return &prop, true
}

// touchCooldown starts the member's window or rejects with 429 and the
// remaining wait. Called after validation so rejected requests do not burn
// the window.
func (v Votes) touchCooldown(c *gin.Context, uid, proposalID string) bool {
	remaining, ok, err := v.cooldowns.Touch(c.Request.Context(), uid, proposalID)
	if err != nil {
		log.Printf("cooldown %s/%s: %v", uid, proposalID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "cooldown check failed"})
		return false
	}
	if !ok {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"err":              "cooldown active",
			"cooldown_seconds": int(math.Ceil(remaining.Seconds())),
		})
		return false
	}
	return true
}

// releaseCooldown undoes the window started by touchCooldown when the write
// itself failed, so a 500 does not cost the member their next attempt.
func (v Votes) releaseCooldown(c *gin.Context, uid, proposalID string) {
	if err := v.cooldowns.Release(c.Request.Context(), uid, proposalID); err != nil {
		log.Printf("cooldown release %s/%s: %v", uid, proposalID, err)
	}
}

// wouldCycle follows the existing delegation chain from target; delegating
// to someone whose chain leads back to the caller is rejected.
func (v Votes) wouldCycle(proposalID, uid, target string) bool {
	seen := map[string]bool{uid: true}
	current := target
	for !seen[current] {
		seen[current] = true
		var del types.Delegation
		if err := v.db.First(&del, "proposal_id = ? AND member_id = ?", proposalID, current).Error; err != nil {
			return false
		}
		current = del.TargetID
	}
	return current == uid
}
