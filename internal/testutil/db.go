// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"frontrow/internal/database"
	"frontrow/internal/models"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// NewTestDB opens a migrated in-memory SQLite database with foreign keys on.
// It is closed when the test ends.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared&_foreign_keys=on", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

// CreateUser inserts a user with the given role names and password "Secret1".
func CreateUser(t *testing.T, db *gorm.DB, username string, roles ...string) *models.User {
	t.Helper()

	if len(roles) == 0 {
		roles = []string{models.RoleUser}
	}
	var roleRows []models.Role
	require.NoError(t, db.Where("name IN ?", roles).Find(&roleRows).Error)

	hash, err := bcrypt.GenerateFromPassword([]byte("Secret1"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{Username: username, Password: string(hash), Roles: roleRows}
	require.NoError(t, db.Create(user).Error)
	return user
}
