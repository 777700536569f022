package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/CTAG07/hillwatch/pkg/markov"
	"github.com/CTAG07/hillwatch/pkg/tweets"
	"github.com/CTAG07/hillwatch/pkg/wordcloud"
)

// Dataset holds every artifact the commands read. It is loaded once and never
// modified afterwards.
type Dataset struct {
	Chains     *markov.Store
	Overall    tweets.Series
	ByUser     tweets.Series
	WordClouds *wordcloud.Texts
}

// LoadDataset loads all artifacts concurrently. The first failure cancels the
// remaining loads.
func LoadDataset(ctx context.Context, cfg *DataConfig, logger *slog.Logger) (*Dataset, error) {
	start := time.Now()
	ds := &Dataset{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		store, err := loadChains(ctx, cfg, logger)
		if err != nil {
			return err
		}
		ds.Chains = store
		return nil
	})

	g.Go(func() error {
		series, err := loadSeries(ctx, cfg.Resolve(cfg.TweetsPerDayPath))
		if err != nil {
			return err
		}
		ds.Overall = series
		return nil
	})

	g.Go(func() error {
		series, err := loadSeries(ctx, cfg.Resolve(cfg.TweetsPerDayByUserPath))
		if err != nil {
			return err
		}
		ds.ByUser = series
		return nil
	})

	g.Go(func() error {
		texts, err := loadWordClouds(ctx, cfg)
		if err != nil {
			return err
		}
		ds.WordClouds = texts
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Debug("Dataset loaded",
		"entities", len(ds.Chains.Entities()),
		"overall_days", len(ds.Overall),
		"user_rows", len(ds.ByUser),
		"elapsed", time.Since(start),
	)
	return ds, nil
}

// loadChains reads the chain store from the SQLite artifact when one is
// configured, and from the JSON artifact otherwise.
func loadChains(ctx context.Context, cfg *DataConfig, logger *slog.Logger) (*markov.Store, error) {
	var store *markov.Store
	if dbPath := cfg.Resolve(cfg.ChainsDatabasePath); dbPath != "" {
		if _, err := os.Stat(dbPath); err != nil {
			return nil, fmt.Errorf("chain database %s: %w", dbPath, err)
		}
		db, err := openChainDB(dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open chain database: %w", err)
		}
		defer func() {
			if err := db.Close(); err != nil {
				logger.Error("Failed to close chain database", "error", err)
			}
		}()
		store, err = markov.LoadStoreDB(ctx, db)
		if err != nil {
			return nil, fmt.Errorf("failed to load chains from %s: %w", dbPath, err)
		}
		logger.Debug("Chains loaded from database", "path", dbPath)
	} else {
		path := cfg.Resolve(cfg.ChainsPath)
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open chains: %w", err)
		}
		defer func(f *os.File) {
			_ = f.Close()
		}(f)
		store, err = markov.LoadStore(f)
		if err != nil {
			return nil, fmt.Errorf("failed to load chains from %s: %w", path, err)
		}
		logger.Debug("Chains loaded from JSON", "path", path)
	}
	store.SetLogger(logger)
	return store, nil
}

func loadSeries(ctx context.Context, path string) (tweets.Series, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tweet counts: %w", err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	series, err := tweets.LoadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load tweet counts from %s: %w", path, err)
	}
	return series, nil
}

func loadWordClouds(ctx context.Context, cfg *DataConfig) (*wordcloud.Texts, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	overall, err := os.Open(cfg.Resolve(cfg.OverallWordCloudPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open overall word cloud text: %w", err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(overall)

	perUser, err := os.Open(cfg.Resolve(cfg.UserWordCloudPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open user word cloud text: %w", err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(perUser)

	return wordcloud.Load(overall, perUser)
}
