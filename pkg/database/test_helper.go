package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/danielcuellar117/cgs-glassbid-mvp/pkg/database/model"
	gbsql "github.com/danielcuellar117/cgs-glassbid-mvp/pkg/sql"
)

// TestHelper provides common test utilities for database tests
type TestHelper struct {
	DB *gorm.DB
	T  *testing.T
}

// NewTestHelper creates a new TestHelper with an in-memory SQLite database
// wired in as the process default, so facades under test hit it.
func NewTestHelper(t *testing.T) *TestHelper {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: &gbsql.NullLogger{},
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
	})
	require.NoError(t, err, "Failed to open SQLite database")

	err = db.AutoMigrate(
		&model.Job{},
		&model.RenderRequest{},
		&model.StorageObject{},
		&model.MeasurementTask{},
		&model.WorkerHeartbeat{},
		&model.AuditLog{},
		&model.PricebookVersion{},
		&model.PricingRule{},
	)
	require.NoError(t, err, "Failed to auto-migrate models")

	gbsql.SetDefaultDB(db)

	return &TestHelper{
		DB: db,
		T:  t,
	}
}

// Cleanup closes the database connection
func (h *TestHelper) Cleanup() {
	sqlDB, err := h.DB.DB()
	if err == nil {
		sqlDB.Close()
	}
}

// CreateTestContext creates a test context
func (h *TestHelper) CreateTestContext() context.Context {
	return context.Background()
}

// TruncateTable truncates a table for clean test state
func (h *TestHelper) TruncateTable(tableName string) {
	h.DB.Exec("DELETE FROM " + tableName)
}

// Count returns the number of records in a table
func (h *TestHelper) Count(tableName string) int64 {
	var count int64
	h.DB.Table(tableName).Count(&count)
	return count
}
