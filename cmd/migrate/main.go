package main

import (
	"log"
	"os"

	"focus-session-be/internal/model"
	"focus-session-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting GORM Migration...")

	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	}
	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	models := []interface{}{
		&model.Session{},
		&model.Setting{},
		&model.SettingChange{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// Partial indexes AutoMigrate cannot express. The unique active-session
	// index is the storage-level backstop for the single-active invariant.
	indexSQL := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_single_active ON sessions ((true)) WHERE ended_at IS NULL;`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions (ended_at DESC) WHERE ended_at IS NOT NULL;`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_timer_completed_at ON sessions (timer_completed_at DESC) WHERE timer_completed_at IS NOT NULL;`,
	}
	for _, sql := range indexSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to create index: %v. Continuing...", err)
		}
	}

	log.Println("Migration complete.")
}
