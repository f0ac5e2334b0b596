package database

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/yourusername/detective-api/internal/config"
)

func TestGormLogLevel(t *testing.T) {
	assert.Equal(t, logger.Silent, GormLogLevel("silent"))
	assert.Equal(t, logger.Error, GormLogLevel(" ERROR "))
	assert.Equal(t, logger.Info, GormLogLevel("info"))
	assert.Equal(t, logger.Warn, GormLogLevel("warn"))
	assert.Equal(t, logger.Warn, GormLogLevel(""))
	assert.Equal(t, logger.Warn, GormLogLevel("verbose"))
}

func TestMigrationSourceURL(t *testing.T) {
	assert.Equal(t, "file://migrations", MigrationSourceURL(""))
	assert.Equal(t, "file://migrations", MigrationSourceURL("./migrations/"))
	assert.Equal(t, "file:///root/migrations", MigrationSourceURL("/root/migrations"))
}

func TestApplyPool(t *testing.T) {
	// sql.Open не устанавливает соединение
	sqlDB, err := sql.Open("postgres", "host=127.0.0.1 port=1 user=x dbname=x sslmode=disable")
	require.NoError(t, err)
	defer sqlDB.Close()

	ApplyPool(sqlDB, config.DatabaseConfig{MaxOpenConns: 5, MaxIdleConns: 8, ConnMaxLifetime: time.Minute})
	assert.Equal(t, 5, sqlDB.Stats().MaxOpenConnections)

	ApplyPool(sqlDB, config.DatabaseConfig{})
	assert.Equal(t, defaultMaxOpenConns, sqlDB.Stats().MaxOpenConnections)
}

func TestSchemaVersion_String(t *testing.T) {
	assert.Equal(t, "version=1 dirty=false", SchemaVersion{Version: 1}.String())
	assert.Equal(t, "version=3 dirty=true", SchemaVersion{Version: 3, Dirty: true}.String())
}
