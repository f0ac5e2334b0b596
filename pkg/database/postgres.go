package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	migrateV4 "github.com/golang-migrate/migrate/v4"
	migratePostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yourusername/detective-api/internal/config"
)

// Значения пула по умолчанию, если в конфигурации указан ноль
const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 10
	defaultConnMaxLifetime = time.Hour
)

// NewPostgresDB создает подключение к PostgreSQL с пулом и уровнем логов из cfg
func NewPostgresDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(gormPostgres.Open(cfg.PostgresConnectionString()), &gorm.Config{
		Logger: logger.Default.LogMode(GormLogLevel(cfg.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	ApplyPool(sqlDB, cfg)
	log.Printf("[Database] Подключение к %s@%s/%s, пул: open=%d", cfg.User, cfg.Host, cfg.DBName, sqlDB.Stats().MaxOpenConnections)

	return db, nil
}

// ApplyPool настраивает пул соединений *sql.DB
func ApplyPool(sqlDB *sql.DB, cfg config.DatabaseConfig) {
	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = defaultMaxOpenConns
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = defaultMaxIdleConns
	}
	if maxIdle > maxOpen {
		maxIdle = maxOpen
	}
	lifetime := cfg.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = defaultConnMaxLifetime
	}

	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(lifetime)
}

// GormLogLevel переводит строку из конфигурации в уровень логгера gorm (по умолчанию warn)
func GormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// MigrationSourceURL строит file:// источник golang-migrate из пути к папке миграций
func MigrationSourceURL(migrationsPath string) string {
	if strings.TrimSpace(migrationsPath) == "" {
		migrationsPath = "migrations"
	}
	return "file://" + filepath.ToSlash(filepath.Clean(migrationsPath))
}

// MigrationCommand - ручная операция над схемой для cmd/fix-db.
// Force < 0 отключает принудительную установку версии.
type MigrationCommand struct {
	Force int // >= 0: выставить версию и снять dirty
	Up    bool
	Down  int // > 0: откатить N шагов
}

// SchemaVersion - состояние схемы после операции
type SchemaVersion struct {
	Version uint
	Dirty   bool
}

func (v SchemaVersion) String() string {
	return fmt.Sprintf("version=%d dirty=%t", v.Version, v.Dirty)
}

func newMigrator(sqlDB *sql.DB, migrationsPath string) (*migrateV4.Migrate, error) {
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("не удалось проверить подключение к БД перед миграцией: %w", err)
	}
	driver, err := migratePostgres.WithInstance(sqlDB, &migratePostgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("не удалось создать драйвер postgres для migrate: %w", err)
	}
	m, err := migrateV4.NewWithDatabaseInstance(MigrationSourceURL(migrationsPath), "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("не удалось создать экземпляр migrate: %w", err)
	}
	return m, nil
}

func schemaVersion(m *migrateV4.Migrate) (SchemaVersion, error) {
	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrateV4.ErrNilVersion) {
		return SchemaVersion{}, fmt.Errorf("failed to read schema version: %w", err)
	}
	return SchemaVersion{Version: version, Dirty: dirty}, nil
}

// MigrateDB применяет SQL-миграции из папки migrationsPath.
// Схема в dirty-состоянии не трогается: ее чинят через cmd/fix-db -force.
func MigrateDB(db *gorm.DB, migrationsPath string) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("не удалось получить *sql.DB из *gorm.DB: %w", err)
	}
	m, err := newMigrator(sqlDB, migrationsPath)
	if err != nil {
		return err
	}

	before, err := schemaVersion(m)
	if err != nil {
		return err
	}
	if before.Dirty {
		return fmt.Errorf("schema is dirty (%s), run fix-db -force", before)
	}

	err = m.Up()
	switch {
	case errors.Is(err, migrateV4.ErrNoChange):
		log.Printf("[Database] Схема актуальна: %s", before)
		return nil
	case err != nil:
		log.Printf("[Database] Ошибка применения миграций: %v", err)
		return fmt.Errorf("ошибка применения миграций 'up': %w", err)
	}

	after, err := schemaVersion(m)
	if err != nil {
		return err
	}
	log.Printf("[Database] Миграции применены: %d -> %d", before.Version, after.Version)
	return nil
}

// RunMigrationCommand выполняет ручную операцию над схемой и возвращает итоговую версию
func RunMigrationCommand(sqlDB *sql.DB, migrationsPath string, cmd MigrationCommand) (SchemaVersion, error) {
	m, err := newMigrator(sqlDB, migrationsPath)
	if err != nil {
		return SchemaVersion{}, err
	}

	switch {
	case cmd.Force >= 0:
		log.Printf("[Database] Принудительная установка версии %d", cmd.Force)
		if err := m.Force(cmd.Force); err != nil {
			return SchemaVersion{}, fmt.Errorf("failed to force version %d: %w", cmd.Force, err)
		}
	case cmd.Up:
		if err := m.Up(); err != nil && !errors.Is(err, migrateV4.ErrNoChange) {
			return SchemaVersion{}, fmt.Errorf("failed to apply migrations: %w", err)
		}
	case cmd.Down > 0:
		if err := m.Steps(-cmd.Down); err != nil {
			return SchemaVersion{}, fmt.Errorf("failed to roll back %d migrations: %w", cmd.Down, err)
		}
	}
	return schemaVersion(m)
}

// GetSQLDB возвращает базовый *sql.DB из *gorm.DB
func GetSQLDB(gormDB *gorm.DB) (*sql.DB, error) {
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB, nil
}
