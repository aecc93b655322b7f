package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/contaflux/contaflux/internal/common"
	"github.com/contaflux/contaflux/internal/config"
	"github.com/contaflux/contaflux/internal/engine"
	"github.com/contaflux/contaflux/internal/extract"
	"github.com/contaflux/contaflux/internal/service"
	"github.com/contaflux/contaflux/internal/storage"
)

func openStorage(ctx context.Context) (service.Storage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDBPath()
	}

	store, err := storage.NewSQLiteStorage(config.ExpandPath(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func newExtractor() (extract.Service, error) {
	url := viper.GetString("extraction.url")
	if url == "" {
		return nil, common.NewUserError(
			"Serviço de extração não configurado: defina extraction.url no config.yaml ou CONTAFLUX_EXTRACTION_URL",
			common.ErrMissingConfig)
	}
	return extract.NewHTTPClient(extract.Config{
		BaseURL: url,
		APIKey:  viper.GetString("extraction.api_key"),
	})
}

func engineConfig() engine.Config {
	cfg := engine.DefaultConfig()
	if v := viper.GetInt("reconcile.batch_lines"); v > 0 {
		cfg.BatchLineLimit = v
	}
	if v := viper.GetDuration("reconcile.batch_timeout"); v > 0 {
		cfg.BatchTimeout = v
	}
	if v := viper.GetDuration("reconcile.batch_pause"); v > 0 {
		cfg.BatchPause = v
	}
	if v := viper.GetFloat64("reconcile.min_similarity"); v > 0 {
		cfg.MinSimilarity = v
	}
	return cfg
}

// loadSession assembles the engine's working state from storage: the pending
// pool, the supplier list and the learned pattern mappings.
func loadSession(ctx context.Context, store service.Storage) (*engine.Session, error) {
	pending, err := store.GetPendingEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending entries: %w", err)
	}
	suppliers, err := store.GetAllSuppliers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load suppliers: %w", err)
	}
	mappings, err := store.GetPatternMappings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load pattern mappings: %w", err)
	}
	return engine.NewSession(pending, suppliers, mappings), nil
}

// persistImport writes an import's results back: consumed pool entries become
// reconciled, new entries are saved, learned patterns are appended.
func persistImport(ctx context.Context, store service.Storage, sess *engine.Session, result *engine.ImportResult) error {
	for _, rec := range result.Reconciled {
		if err := store.MarkReconciled(ctx, rec.ID); err != nil {
			return fmt.Errorf("failed to reconcile entry %s: %w", rec.ID, err)
		}
	}
	if len(result.Created) > 0 {
		if err := store.SaveEntries(ctx, result.Created); err != nil {
			return fmt.Errorf("failed to save new entries: %w", err)
		}
	}
	if appended := sess.Patterns.Appended(); len(appended) > 0 {
		if err := store.AppendPatternMappings(ctx, appended); err != nil {
			return fmt.Errorf("failed to persist learned patterns: %w", err)
		}
	}
	return nil
}

func formatDate(t time.Time) string {
	return t.Format("02/01/2006")
}
