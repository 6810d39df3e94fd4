package webserver

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/commonsdao/liquidvote/src/api/types"
)

type Categories struct {
	db *gorm.DB
}

func NewCategories(db *gorm.DB) Categories {
	return Categories{db: db}
}

// List returns the organization's categories. created_by is included so
// callers can derive suggestion-authorship eligibility locally.
func (h Categories) List(c *gin.Context) {
	var rows []types.Category
	if err := h.db.Order("created_at desc").Find(&rows).Error; err != nil {
		log.Printf("categories: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "database error"})
		return
	}

	type categoryJSON struct {
		ID        string `json:"id"`
		Title     string `json:"title"`
		CreatedBy string `json:"created_by"`
	}
	out := make([]categoryJSON, 0, len(rows))
	for _, row := range rows {
		out = append(out, categoryJSON{ID: row.ID, Title: row.Title, CreatedBy: row.CreatedBy})
	}
	c.JSON(http.StatusOK, out)
}
