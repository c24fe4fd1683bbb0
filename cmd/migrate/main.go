package main

import (
	"github.com/hoangchung16-00/personal-finance-backend/internal/config" // Custom import path (Config)
	"github.com/hoangchung16-00/personal-finance-backend/internal/db"     // Custom import path (Database)
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig() // Load configuration
	db.Migrate(cfg.DSN())      // Run schema migration
}
