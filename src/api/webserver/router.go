package webserver

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/commonsdao/liquidvote/src/api/config"
	"github.com/commonsdao/liquidvote/src/api/data"
)

func attachRoutes(r *gin.Engine, cfg config.Config, db *gorm.DB, cooldowns data.Cooldowns) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	propH := NewProposals(db, cooldowns)
	voteH := NewVotes(db, cooldowns)
	suggH := NewSuggestions(db)
	catH := NewCategories(db)

	writeLimiter := NewIPRateLimiter(defaultWriteRPS, defaultWriteBurst)

	v1 := r.Group("/v1")
	v1.Use(JWTMiddleware([]byte(cfg.JWTSecret)))
	{
		v1.GET("/proposals/:id", propH.Get)
		v1.GET("/proposals/:id/voting-status", propH.VotingStatus)
		v1.GET("/proposals/:id/suggestions", suggH.List)
		v1.GET("/categories/organization", catH.List)

		writes := v1.Group("")
		writes.Use(RateLimitMiddleware(writeLimiter))
		writes.POST("/proposals/:id/vote", voteH.Cast)
		writes.POST("/proposals/:id/delegate", voteH.Delegate)
		writes.POST("/proposals/:id/suggestions", suggH.Create)
	}
}
