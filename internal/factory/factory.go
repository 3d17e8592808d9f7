// Package factory constructs configured infrastructure components.
package factory

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/perscribe/persona-backend/internal/config"
	"github.com/perscribe/persona-backend/internal/extractor"
	"github.com/perscribe/persona-backend/internal/store"
	"github.com/perscribe/persona-backend/internal/store/postgres"
	"github.com/perscribe/persona-backend/internal/store/sqlite"
)

// NewStore builds the store for the configured driver. The schema, including
// the seeded question banks, is applied on startup; both drivers use
// idempotent DDL so restarts are safe.
func NewStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.Store, error) {
	switch cfg.DBDriver {
	case "postgres":
		db, err := postgres.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			return nil, fmt.Errorf("apply postgres schema: %w", err)
		}
		log.Info().Msg("postgres store ready")
		return postgres.NewWithDB(db), nil
	case "sqlite":
		st, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		log.Info().Str("path", cfg.SQLitePath).Msg("sqlite store ready")
		return st, nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER: %s", cfg.DBDriver)
	}
}

// NewTraitExtractor returns the HTTP scorer client, or the no-op extractor
// when no scorer URL is configured.
func NewTraitExtractor(cfg *config.Config, log zerolog.Logger) extractor.TraitExtractor {
	if cfg.ExtractorURL == "" {
		log.Info().Msg("no trait extractor configured; interviews will record answers only")
		return extractor.Noop{}
	}
	log.Info().Str("url", cfg.ExtractorURL).Msg("trait extractor configured")
	return extractor.NewHTTPExtractor(cfg.ExtractorURL, cfg.ExtractorTimeout())
}
