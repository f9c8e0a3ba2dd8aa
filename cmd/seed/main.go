package main

import (
	"log"
	"sort"

	"github.com/Baaaki/community-hub/internal/config"
	"github.com/Baaaki/community-hub/internal/database"
	"github.com/Baaaki/community-hub/internal/repository"
	"github.com/Baaaki/community-hub/pkg/logger"
	"go.uber.org/zap"
)

// Creates the schema and the bootstrap admin without starting the server.
// Running it against an initialized database changes nothing.
func main() {
	cfg := config.Load()

	if err := logger.Init(!cfg.IsProduction(), cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.Connect(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to connect database", zap.Error(err))
	}
	defer database.Close(db)

	if err := database.Initialize(db, database.AdminSeed{
		Username: cfg.AdminUsername,
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
	}); err != nil {
		logger.Log.Fatal("Failed to initialize schema", zap.Error(err))
	}

	counts, err := repository.NewMaintenanceRepository(db).TableCounts()
	if err != nil {
		logger.Log.Fatal("Failed to count rows", zap.Error(err))
	}

	tables := make([]string, 0, len(counts))
	for table := range counts {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	for _, table := range tables {
		logger.Log.Info("Table ready", zap.String("table", table), zap.Int64("rows", counts[table]))
	}
}
