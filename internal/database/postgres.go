package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/khaledmahi/linkup/internal/comment"
	"github.com/khaledmahi/linkup/internal/group"
	"github.com/khaledmahi/linkup/internal/message"
	"github.com/khaledmahi/linkup/internal/post"
	"github.com/khaledmahi/linkup/internal/user"
)

// NewPostgresConnection opens a GORM connection against the given DSN and
// runs schema migration.
func NewPostgresConnection(dsn string) (*gorm.DB, error) {
	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates or updates the schema. Parents are migrated before the
// tables that reference them.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&user.Tier{},
		&user.User{},
		&group.Group{},
		&group.UserGroup{},
		&post.Post{},
		&post.Image{},
		&comment.Comment{},
		&message.Message{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
