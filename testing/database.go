// Package testing provides test utilities and database setup for testing the search and tagging engine
package testing

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/opencivic/agora/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB represents a test database instance
type TestDB struct {
	DB *gorm.DB
}

// SetupTestDB opens an in-memory sqlite database and migrates the schema.
// Each call gets a private database, so tests never see each other's rows.
func SetupTestDB() (*TestDB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}

	// Every new connection to :memory: is a fresh empty database; pin the
	// pool to one connection so migrations and queries share it.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.Contributor{},
		&models.Project{},
		&models.Group{},
		&models.Event{},
		&models.Tag{},
		&models.Tagging{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate test schema: %w", err)
	}

	return &TestDB{DB: db}, nil
}

// TeardownTestDB closes the database connection
func (tdb *TestDB) TeardownTestDB() error {
	if tdb.DB == nil {
		return nil
	}
	sqlDB, err := tdb.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// TestWithDB runs a test function with a fresh database
func TestWithDB(t *testing.T, testFunc func(*TestDB)) {
	t.Helper()

	tdb, err := SetupTestDB()
	if err != nil {
		t.Fatalf("Failed to setup test database: %v", err)
	}
	defer func() {
		if err := tdb.TeardownTestDB(); err != nil {
			t.Errorf("Failed to teardown test database: %v", err)
		}
	}()

	testFunc(tdb)
}

// CreateTestContext creates a context for testing
func CreateTestContext() context.Context {
	return context.Background()
}
