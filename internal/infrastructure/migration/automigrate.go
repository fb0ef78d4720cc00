package migration

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/plexpatrol/plexpatrol/internal/infrastructure/persistence/models"
	"github.com/plexpatrol/plexpatrol/internal/shared/logger"
)

func AutoMigrateModels() []interface{} {
	return models.All()
}

// GormAutoMigrateStrategy derives the schema from the persistence models.
// Handy for throwaway databases; production files use goose.
type GormAutoMigrateStrategy struct {
	logger logger.Interface
}

func NewGormAutoMigrateStrategy(log logger.Interface) *GormAutoMigrateStrategy {
	return &GormAutoMigrateStrategy{logger: log.Named("migration.gorm")}
}

func (s *GormAutoMigrateStrategy) Migrate(db *gorm.DB, models ...interface{}) error {
	if len(models) == 0 {
		models = AutoMigrateModels()
	}
	s.logger.Infow("running gorm auto-migrate", "models_count", len(models))
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

func (s *GormAutoMigrateStrategy) GetName() string {
	return StrategyGormAutoMigrate
}
