package webserver

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"

	"github.com/commonsdao/liquidvote/src/api/types"
)

// Suggestion authorship closes 60 minutes before the voting deadline so a
// suggestion is never published with too little time left to act on it.
const suggestionCutoff = 60 * time.Minute

type Suggestions struct {
	db        *gorm.DB
	sanitizer *bluemonday.Policy
}

func NewSuggestions(db *gorm.DB) Suggestions {
	return Suggestions{db: db, sanitizer: bluemonday.StrictPolicy()}
}

type suggestionJSON struct {
	ID           string    `json:"id"`
	Type         string    `json:"suggestion_type"`
	TargetOption int       `json:"target_option_number,omitempty"`
	TargetUser   string    `json:"target_user,omitempty"`
	CategoryID   string    `json:"category_id"`
	CreatedAt    time.Time `json:"created_at"`
	Reason       string    `json:"reason,omitempty"`
}

// List returns the proposal's suggestions in display order: vote suggestions
// before delegation suggestions, newest first within each type.
func (s Suggestions) List(c *gin.Context) {
	id := c.Param("id")
	var prop types.Proposal
	if err := s.db.First(&prop, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "proposal not found"})
		return
	}

	var rows []types.Suggestion
	// vote_option sorts after delegate lexically, hence desc.
	if err := s.db.Where("proposal_id = ?", id).
		Order("suggestion_type desc, created_at desc").
		Find(&rows).Error; err != nil {
		log.Printf("suggestions %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "database error"})
		return
	}

	out := make([]suggestionJSON, 0, len(rows))
	for _, row := range rows {
		out = append(out, suggestionJSON{
			ID:           row.ID,
			Type:         row.Type,
			TargetOption: row.TargetOption,
			TargetUser:   row.TargetUser,
			CategoryID:   row.CategoryID,
			CreatedAt:    row.CreatedAt,
			Reason:       row.Reason,
		})
	}
	c.JSON(http.StatusOK, out)
}

// Create publishes a suggestion. The caller must own a category created by
// the proposal's creator, and authorship must still be open for the
// proposal.
func (s Suggestions) Create(c *gin.Context) {
	var req struct {
		Type         string `json:"suggestion_type" binding:"required,oneof=vote_option delegate"`
		TargetOption int    `json:"target_option_number"`
		TargetUser   string `json:"target_user"`
		CategoryID   string `json:"category_id" binding:"required"`
		Reason       string `json:"reason" binding:"max=2000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	var prop types.Proposal
	if err := s.db.First(&prop, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "proposal not found"})
		return
	}
	if time.Until(prop.Deadline) <= suggestionCutoff {
		c.JSON(http.StatusGone, gin.H{"err": "suggestion period has ended"})
		return
	}

	uid := c.GetString("uid")
	var cat types.Category
	if err := s.db.First(&cat, "id = ?", req.CategoryID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "unknown category"})
		return
	}
	if cat.CreatedBy != uid || prop.CreatedBy != cat.CreatedBy {
		c.JSON(http.StatusForbidden, gin.H{"err": "not a suggestion author for this proposal"})
		return
	}

	switch req.Type {
	case "vote_option":
		var option types.Option
		if err := s.db.First(&option, "proposal_id = ? AND number = ?", prop.ID, req.TargetOption).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"err": "invalid option"})
			return
		}
		req.TargetUser = ""
	case "delegate":
		var target types.Member
		if err := s.db.First(&target, "id = ?", req.TargetUser).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"err": "target not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"err": "database error"})
			}
			return
		}
		req.TargetOption = 0
	}

	row := types.Suggestion{
		ID:           uuid.NewString(),
		ProposalID:   prop.ID,
		CategoryID:   cat.ID,
		Type:         req.Type,
		TargetOption: req.TargetOption,
		TargetUser:   req.TargetUser,
		Reason:       s.sanitizer.Sanitize(req.Reason),
		CreatedBy:    uid,
		CreatedAt:    time.Now(),
	}
	if err := s.db.Create(&row).Error; err != nil {
		log.Printf("create suggestion %s: %v", prop.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "failed to create suggestion"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": row.ID})
}
