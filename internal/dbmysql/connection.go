package dbmysql

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"thriftstore/internal/config"
	"thriftstore/internal/logger"
)

// NewMySQL returns a GORM DB instance connected to MySQL with the schema migrated.
func NewMySQL(cnf *config.Config) (*gorm.DB, error) {
	dsn := cnf.DSN()
	if cnf.Database.DatabaseName == "" {
		return nil, fmt.Errorf("MYSQL_DATABASE is not set")
	}

	logLevel := gormlogger.Warn
	if cnf.Server.Environment == "development" {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(logLevel),
		PrepareStmt:    true,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot connect to MySQL: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sql.DB error: %w", err)
	}
	sqlDB.SetMaxOpenConns(cnf.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cnf.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := Migrate(db); err != nil {
		return nil, err
	}

	logger.Log.WithField("database", cnf.Database.DatabaseName).Info("connected to MySQL")
	return db, nil
}

// Migrate creates or updates every table. Order matters for the foreign keys.
func Migrate(db *gorm.DB) error {
	models := []interface{}{
		&User{},
		&Listing{},
		&ListingTag{},
		&Image{},
		&Wishlist{},
		&Conversation{},
		&Message{},
		&Notification{},
		&Review{},
		&Transaction{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
