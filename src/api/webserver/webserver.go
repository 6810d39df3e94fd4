package webserver

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/commonsdao/liquidvote/src/api/config"
	"github.com/commonsdao/liquidvote/src/api/data"
)

func New(cfg config.Config, db *gorm.DB, cooldowns data.Cooldowns) *gin.Engine {
	g := gin.New()
	g.Use(gin.Logger(), gin.Recovery())
	attachRoutes(g, cfg, db, cooldowns)
	return g
}
