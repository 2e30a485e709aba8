package store

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/core/analytics"
	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/modules/admin/models"
	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/shared/config"
	"github.com/sudipsherpa333-design/AI-Resume-Builder-Analyzer-sub004/internal/shared/database"
)

// demo dataset shape used when the memory store has no seed file
const (
	demoUsers = 250
	demoSeed  = 42
)

//go:embed schema_sqlite.sql
var sqliteSchema string

// Store is an opened query backend
type Store struct {
	Repo   analytics.QueryRepository
	Pinger analytics.Pinger
	Driver string

	// DB is set for the sql drivers only
	DB *database.DB
}

// Open connects the backend selected by cfg.StoreDriver and applies the
// in-flight query limit
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	s := &Store{Driver: cfg.StoreDriver}

	switch cfg.StoreDriver {
	case config.DriverPostgres:
		opts := database.DefaultOptions()
		opts.Debug = !cfg.IsProduction() && cfg.LogLevel == "debug"

		db, err := database.NewDB(ctx, cfg.DatabaseURL, opts)
		if err != nil {
			return nil, err
		}
		agg := analytics.NewAggregator(db.GORM)
		s.DB = db
		s.Repo = agg
		s.Pinger = agg

	case config.DriverSQLite:
		opts := database.DefaultOptions()
		opts.Debug = !cfg.IsProduction() && cfg.LogLevel == "debug"

		db, err := database.NewSQLite(ctx, cfg.SQLitePath, opts)
		if err != nil {
			return nil, err
		}
		if err := prepareSQLite(ctx, db, cfg.SeedFile); err != nil {
			_ = db.Close()
			return nil, err
		}
		agg := analytics.NewAggregator(db.GORM)
		s.DB = db
		s.Repo = agg
		s.Pinger = agg

	case config.DriverMemory:
		mem := analytics.NewMemoryRepository()
		dataset, source, err := memoryDataset(cfg.SeedFile)
		if err != nil {
			return nil, err
		}
		dataset.Load(mem)
		log.Info().
			Str("source", source).
			Int("users", len(dataset.Users)).
			Int("resumes", len(dataset.Resumes)).
			Msg("memory store loaded")
		s.Repo = mem
		s.Pinger = mem

	default:
		return nil, fmt.Errorf("%w: unknown store driver %q", config.ErrInvalidConfig, cfg.StoreDriver)
	}

	s.Repo = analytics.WithQueryLimit(s.Repo, cfg.MaxInflightQueries)
	return s, nil
}

// prepareSQLite creates the reporting tables and fills an empty database
// from the seed file or the demo dataset
func prepareSQLite(ctx context.Context, db *database.DB, seedFile string) error {
	if err := db.GORM.WithContext(ctx).Exec(sqliteSchema).Error; err != nil {
		return fmt.Errorf("failed to create sqlite schema: %w", err)
	}

	var users int64
	if err := db.GORM.WithContext(ctx).Table(analytics.TableUsers).Count(&users).Error; err != nil {
		return fmt.Errorf("failed to inspect sqlite store: %w", err)
	}
	if users > 0 {
		return nil
	}

	dataset, source, err := memoryDataset(seedFile)
	if err != nil {
		return err
	}
	if err := dataset.Save(ctx, db.GORM); err != nil {
		return err
	}

	log.Info().
		Str("source", source).
		Int("users", len(dataset.Users)).
		Int("resumes", len(dataset.Resumes)).
		Msg("sqlite store seeded")
	return nil
}

func memoryDataset(seedFile string) (models.Dataset, string, error) {
	if seedFile != "" {
		d, err := models.LoadDatasetFile(seedFile)
		if err != nil {
			return models.Dataset{}, "", err
		}
		return d, seedFile, nil
	}
	return models.GenerateDemo(time.Now(), demoUsers, demoSeed), "demo", nil
}

// Close releases the database connection, if any
func (s *Store) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}
