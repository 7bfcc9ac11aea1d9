package repository

import (
	"fmt"
	"sync"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/truongnh28/bookstore/config"
)

var db *gorm.DB
var dbOnce sync.Once

func InitDatabase(cfg config.DatabaseConfig) *gorm.DB {
	dbOnce.Do(
		func() {
			var err error
			db, err = gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{
				//Logger: logger.Default.LogMode(logger.Info),
			})
			if err != nil {
				panic(fmt.Errorf("failed to connect database, error: %v", err))
			}
		},
	)

	return db
}

func Migrate(database *gorm.DB) error {
	return database.AutoMigrate(
		&Author{},
		&Book{},
		&User{},
		&Cart{},
		&CartItem{},
		&Discount{},
		&Transaction{},
		&TransactionItem{},
	)
}
