package data

import (
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/commonsdao/liquidvote/src/api/types"
)

func MustMySQL(dsn string) *gorm.DB {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	return db
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.Member{},
		&types.Category{},
		&types.Proposal{},
		&types.Option{},
		&types.Vote{},
		&types.Delegation{},
		&types.Suggestion{},
	)
}
