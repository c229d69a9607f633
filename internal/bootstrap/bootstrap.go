// Package bootstrap wires the split service from configuration.
package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/maauso/audiosplit/internal/audio"
	"github.com/maauso/audiosplit/internal/config"
	"github.com/maauso/audiosplit/internal/job"
	"github.com/maauso/audiosplit/internal/storage"
)

// Dependencies holds all initialized dependencies shared by the CLI and
// the HTTP server.
type Dependencies struct {
	SplitService *job.SplitService
	Config       *config.Config
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	store, err := initStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	locator := cfg.Locator()
	prober := audio.NewFFprobeProber(locator, logger)
	splitter := audio.NewFFmpegSplitter(locator,
		audio.WithFormats(audio.DefaultFormats()),
		audio.WithLogger(logger),
	)

	svc := job.NewSplitService(job.NewMemoryRepository(), store, prober, splitter, logger)

	return &Dependencies{
		SplitService: svc,
		Config:       cfg,
	}, nil
}

// initStorage creates the appropriate storage backend based on configuration.
func initStorage(cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := storage.NewS3Storage(cfg.TempDir, s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 sources enabled",
			slog.String("region", cfg.S3Region),
			slog.String("endpoint", cfg.S3Endpoint),
		)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalStorage(cfg.TempDir)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Debug("local storage configured",
		slog.String("temp_dir", cfg.TempDir),
	)
	return localStore, nil
}
