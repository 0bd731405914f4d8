package database

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hearthstay/server/internal/config"
	"github.com/hearthstay/server/internal/logger"
	"github.com/hearthstay/server/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB holds the database connection
var DB *gorm.DB

// ErrDuplicateKey is returned by TranslateError for unique constraint violations
var ErrDuplicateKey = errors.New("duplicate key")

// Initialize creates and configures the database connection
func Initialize(cfg *config.Config) error {
	db, err := Open(cfg.Database, cfg.IsDevelopment())
	if err != nil {
		return err
	}

	DB = db
	logger.Log.Info("Database connected",
		zap.String("driver", cfg.Database.Driver),
	)
	return nil
}

// Open connects with the configured driver without touching the global DB
func Open(dbCfg config.DatabaseConfig, verbose bool) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch dbCfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(dbCfg.SQLitePath)
	case "postgres", "":
		dialector = postgres.Open(dbCfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", dbCfg.Driver)
	}

	gormLogger := gormlogger.Default.LogMode(gormlogger.Warn)
	if verbose {
		gormLogger = gormlogger.Default.LogMode(gormlogger.Info)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if dbCfg.Driver == "sqlite" {
		// sqlite serialises writers; one connection avoids "database is locked"
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	return db, nil
}

// Migrate runs auto-migration on the global connection
func Migrate() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	return MigrateDB(DB)
}

// MigrateDB runs auto-migration for all models and creates the extra indexes
func MigrateDB(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.UIComponent{},
		&models.ComponentUsage{},
		&models.User{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	logger.Log.Info("Database migrations completed")
	return nil
}

// createIndexes creates indexes gorm tags cannot express
func createIndexes(db *gorm.DB) error {
	stmts := []string{
		"CREATE INDEX IF NOT EXISTS idx_ui_components_active_public ON ui_components (is_active, is_public)",
		"CREATE INDEX IF NOT EXISTS idx_ui_components_category_type ON ui_components (category, component_type)",
		"CREATE INDEX IF NOT EXISTS idx_component_usages_component_page ON component_usages (component_id, page)",
		"CREATE INDEX IF NOT EXISTS idx_users_email_lower ON users (LOWER(email))",
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// TranslateError maps driver-specific constraint errors onto package sentinels
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateKey
	}
	msg := strings.ToLower(err.Error())
	// postgres: SQLSTATE 23505, sqlite: "UNIQUE constraint failed"
	if strings.Contains(msg, "23505") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint failed") {
		return ErrDuplicateKey
	}
	return err
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// Health checks database connectivity
func Health() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Ping()
}
