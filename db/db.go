package db

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/seo-optimizer/seoscan/models"
)

// Connect opens the postgres database. With autoMigrate the three tables are
// created or updated in place.
func Connect(dsn string, autoMigrate bool) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	if autoMigrate {
		if err := gdb.AutoMigrate(&models.User{}, &models.Project{}, &models.Analysis{}); err != nil {
			return nil, err
		}
	}
	return gdb, nil
}
