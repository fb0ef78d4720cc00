package migration

import (
	"database/sql"
	"fmt"
	"io/fs"
	"sync"

	"github.com/pressly/goose/v3"
	"gorm.io/gorm"

	"github.com/plexpatrol/plexpatrol/internal/infrastructure/migration/scripts"
	"github.com/plexpatrol/plexpatrol/internal/shared/logger"
)

const (
	StrategyGoose           = "goose"
	StrategyGormAutoMigrate = "gorm_auto_migrate"

	gooseDialect = "sqlite3"
)

// Strategy defines the interface for different migration strategies
type Strategy interface {
	// Migrate executes the migration strategy
	Migrate(db *gorm.DB, models ...interface{}) error
	// GetName returns the strategy name
	GetName() string
}

// goose keeps its dialect, base FS and logger in package globals.
var gooseMu sync.Mutex

// GooseStrategy applies the versioned SQL scripts. Scripts are read from the
// embedded set unless a directory on disk is given.
type GooseStrategy struct {
	fsys        fs.FS
	scriptsPath string
	logger      logger.Interface
}

// NewGooseStrategy uses the embedded scripts for migrating and scriptsPath
// for Create.
func NewGooseStrategy(scriptsPath string, log logger.Interface) *GooseStrategy {
	return &GooseStrategy{
		fsys:        scripts.FS,
		scriptsPath: scriptsPath,
		logger:      log.Named("migration.goose"),
	}
}

func (s *GooseStrategy) GetName() string {
	return StrategyGoose
}

// with runs fn with goose configured for this strategy.
func (s *GooseStrategy) with(db *gorm.DB, fn func(sqlDB *sql.DB) error) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	goose.SetBaseFS(s.fsys)
	goose.SetLogger(&gooseLogger{log: s.logger})
	defer goose.SetBaseFS(nil)

	return fn(sqlDB)
}

func (s *GooseStrategy) Migrate(db *gorm.DB, _ ...interface{}) error {
	return s.with(db, func(sqlDB *sql.DB) error {
		currentVersion, err := goose.GetDBVersion(sqlDB)
		if err != nil {
			s.logger.Errorw("failed to get current version", "error", err)
			return fmt.Errorf("failed to get current version: %w", err)
		}

		s.logger.Infow("current migration status", "version", currentVersion)

		if err := goose.Up(sqlDB, "."); err != nil {
			s.logger.Errorw("migration failed", "error", err)
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		finalVersion, err := goose.GetDBVersion(sqlDB)
		if err != nil {
			return fmt.Errorf("failed to get final version: %w", err)
		}

		s.logger.Infow("migration completed successfully",
			"from_version", currentVersion,
			"to_version", finalVersion)
		return nil
	})
}

func (s *GooseStrategy) MigrateDown(db *gorm.DB, steps int) error {
	s.logger.Infow("starting down migration", "steps", steps)

	return s.with(db, func(sqlDB *sql.DB) error {
		for i := 0; i < steps; i++ {
			if err := goose.Down(sqlDB, "."); err != nil {
				s.logger.Errorw("down migration failed", "error", err)
				return fmt.Errorf("failed to run down migration: %w", err)
			}
		}
		return nil
	})
}

func (s *GooseStrategy) GetVersion(db *gorm.DB) (int64, error) {
	var version int64
	err := s.with(db, func(sqlDB *sql.DB) error {
		v, err := goose.GetDBVersion(sqlDB)
		if err != nil {
			return fmt.Errorf("failed to get version: %w", err)
		}
		version = v
		return nil
	})
	return version, err
}

// Status prints every known script with its applied state through the logger.
func (s *GooseStrategy) Status(db *gorm.DB) error {
	return s.with(db, func(sqlDB *sql.DB) error {
		if err := goose.Status(sqlDB, "."); err != nil {
			return fmt.Errorf("failed to get status: %w", err)
		}
		return nil
	})
}

// Create writes a new timestamped SQL script to scriptsPath on disk.
func (s *GooseStrategy) Create(name string) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	goose.SetBaseFS(nil)

	if err := goose.Create(nil, s.scriptsPath, name, "sql"); err != nil {
		return fmt.Errorf("failed to create migration: %w", err)
	}

	s.logger.Infow("migration created successfully", "name", name, "dir", s.scriptsPath)
	return nil
}

type gooseLogger struct {
	log logger.Interface
}

func (l *gooseLogger) Printf(format string, v ...interface{}) {
	l.log.Infow(fmt.Sprintf(format, v...))
}

func (l *gooseLogger) Fatalf(format string, v ...interface{}) {
	l.log.Errorw(fmt.Sprintf(format, v...))
}
