package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"frontrow/internal/config"
	"frontrow/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestDialector(t *testing.T) {
	tests := []struct {
		name     string
		driver   string
		wantName string
		wantErr  bool
	}{
		{"Default is postgres", "", "postgres", false},
		{"Postgres", "postgres", "postgres", false},
		{"SQLite", "sqlite", "sqlite", false},
		{"Unsupported", "mysql", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Dialector(&config.Config{DBDriver: tt.driver, DBPath: ":memory:"})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, d.Name())
		})
	}
}

func TestConfigurePool_SQLite(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, configurePool(db, &config.Config{WorkerPoolSize: 8}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestMigrate_SeedsRolesIdempotently(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, configurePool(db, nil))

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db))
	require.NoError(t, Migrate(ctx, db))

	var names []string
	require.NoError(t, db.Model(&models.Role{}).Order("name").Pluck("name", &names).Error)
	assert.Equal(t, []string{models.RoleAdmin, models.RoleUser}, names)
}

func TestPersistentModels_IncludesLikeTables(t *testing.T) {
	var post, comment bool
	for _, model := range PersistentModels() {
		switch model.(type) {
		case *models.PostLike:
			post = true
		case *models.CommentLike:
			comment = true
		}
	}
	assert.True(t, post, "PersistentModels should include PostLike")
	assert.True(t, comment, "PersistentModels should include CommentLike")
}

func TestCustomGormLogger_Trace(t *testing.T) {
	var buf bytes.Buffer
	l := NewGormLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 1 }, nil)
	assert.Empty(t, buf.String(), "fast successful queries are below warn level")

	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 0 }, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String(), "record not found is not an error")

	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT broken", 0 }, errors.New("syntax error"))
	assert.Contains(t, buf.String(), "GORM query error")

	buf.Reset()
	l.Trace(context.Background(), time.Now().Add(-time.Second), func() (string, int64) { return "SELECT slow", 1 }, nil)
	assert.Contains(t, buf.String(), "GORM slow query")

	buf.Reset()
	silent := l.LogMode(logger.Silent)
	silent.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT broken", 0 }, errors.New("boom"))
	assert.Empty(t, buf.String())
}

func TestSchemaStatus(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, configurePool(db, nil))

	for table, present := range SchemaStatus(db) {
		assert.False(t, present, table)
	}

	require.NoError(t, Migrate(context.Background(), db))
	status := SchemaStatus(db)
	for _, table := range []string{"users", "roles", "user_roles", "posts", "post_likes", "comments", "comment_likes"} {
		assert.True(t, status[table], table)
	}
}
