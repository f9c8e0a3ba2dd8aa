// Package testutil builds throwaway databases, Redis servers and rows for tests.
package testutil

import (
	"testing"

	"github.com/Baaaki/community-hub/internal/database"
	"github.com/Baaaki/community-hub/internal/models"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// TestDatabase is a private in-memory SQLite database
type TestDatabase struct {
	DB   *gorm.DB
	Name string
}

// TestRedis wraps a miniredis server and the URL that reaches it
type TestRedis struct {
	Server *miniredis.Miniredis
	URL    string
}

// OpenTestDatabase opens an empty in-memory database. Each call gets its own
// name so packages running in parallel never share rows.
func OpenTestDatabase(t *testing.T) *TestDatabase {
	t.Helper()
	name := uuid.NewString()

	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), database.GormConfig())
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("test database handle: %v", err)
	}
	// one connection, as the server runs SQLite
	sqlDB.SetMaxOpenConns(1)

	return &TestDatabase{DB: db, Name: name}
}

// SetupTestDatabase opens a database with every table migrated and no admin seeded
func SetupTestDatabase(t *testing.T) *TestDatabase {
	t.Helper()
	td := OpenTestDatabase(t)
	if err := td.DB.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return td
}

// Teardown closes the connection, which drops the in-memory database
func (td *TestDatabase) Teardown(t *testing.T) {
	sqlDB, err := td.DB.DB()
	if err != nil {
		t.Logf("test database %s handle: %v", td.Name, err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		t.Logf("close test database %s: %v", td.Name, err)
	}
}

// SetupTestRedis starts a miniredis server on a random local port
func SetupTestRedis(t *testing.T) *TestRedis {
	t.Helper()
	server := miniredis.NewMiniRedis()
	if err := server.Start(); err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	return &TestRedis{Server: server, URL: "redis://" + server.Addr()}
}

// Teardown stops the server; clients see connection errors afterwards
func (tr *TestRedis) Teardown(t *testing.T) {
	tr.Server.Close()
}
