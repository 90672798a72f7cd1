package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/five82/rewear/internal/catalog"
	"github.com/five82/rewear/internal/config"
	"github.com/five82/rewear/internal/logging"
	"github.com/five82/rewear/internal/prefs"
	"github.com/five82/rewear/internal/ui"
)

// Options configure the ReWear client.
type Options struct {
	ConfigPath  string
	PrefsPath   string // empty uses default ~/.config/rewear/prefs.toml
	PollEvery   int    // seconds; zero uses default
	LogToStderr bool
	Ephemeral   bool // keep the token and local items in memory only
}

// Run boots the ReWear TUI until the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logPath := cfg.LogPath()
	if opts.LogToStderr {
		logPath = ""
	}
	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Path: logPath})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	store, closer, err := openStorage(cfg, opts.Ephemeral)
	if err != nil {
		return err
	}
	defer func() {
		if err := closer.Close(); err != nil {
			logger.Warn("close storage", zap.Error(err))
		}
	}()

	svc, err := NewServices(cfg, store, logger)
	if err != nil {
		return err
	}

	userPrefs := prefs.Load(opts.PrefsPath)
	if userPrefs.PageSize > 0 {
		svc.Catalog.SetLimit(userPrefs.PageSize)
	}
	svc.Catalog.SetFilters(catalog.Filters{
		Category:  userPrefs.Filters.Category,
		Size:      userPrefs.Filters.Size,
		Condition: userPrefs.Filters.Condition,
	})

	logger.Info("starting", zap.String("api_url", cfg.APIURL), zap.String("storage", cfg.Storage))
	bootstrap(ctx, svc, logger)

	interval := defaultPollInterval
	if opts.PollEvery > 0 {
		interval = time.Duration(opts.PollEvery) * time.Second
	}
	StartPoller(ctx, svc, interval, logger)

	return ui.Run(ui.Options{
		Context:   ctx,
		Session:   svc.Session,
		Catalog:   svc.Catalog,
		Swaps:     svc.Swaps,
		Logger:    logger,
		ThemeName: userPrefs.Theme,
		Prefs:     userPrefs,
		PrefsPath: opts.PrefsPath,
		LogPath:   cfg.LogPath(),
	})
}

// bootstrap populates the services before the UI draws its first frame.
// Failures are logged and left in each component's snapshot.
func bootstrap(ctx context.Context, svc Services, logger *zap.Logger) {
	if err := svc.Session.Restore(ctx); err != nil {
		logger.Info("session not restored", zap.Error(err))
	}
	if err := svc.Catalog.Probe(ctx); err != nil {
		logger.Warn("api unreachable", zap.Error(err))
	}
	svc.Catalog.LoadLocal(ctx)
	if err := svc.Catalog.LoadPage(ctx); err != nil {
		logger.Warn("initial page load", zap.Error(err))
	}
	if svc.Session.Snapshot().Authenticated {
		if err := svc.Swaps.FetchMine(ctx, svc.Session.Token()); err != nil {
			logger.Warn("initial swap load", zap.Error(err))
		}
	}
}
