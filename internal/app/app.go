package app

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"supply-risk-alerts/internal/alerting"
	"supply-risk-alerts/internal/api"
	"supply-risk-alerts/internal/config"
	"supply-risk-alerts/internal/fetcher"
	"supply-risk-alerts/internal/metrics"
	"supply-risk-alerts/internal/mq"
	"supply-risk-alerts/internal/scheduler"
	"supply-risk-alerts/internal/scoring"
	"supply-risk-alerts/internal/service"
	"supply-risk-alerts/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newFetchers() []fetcher.Fetcher {
	fetchers := make([]fetcher.Fetcher, 0, 2)

	if a.Config.Sources.Indicator.Enabled {
		fetchers = append(fetchers, fetcher.NewIndicator(fetcher.IndicatorOptions{
			BaseURL:   a.Config.Sources.Indicator.BaseURL,
			APIKey:    a.Config.Sources.Indicator.APIKey,
			Series:    a.Config.Sources.Indicator.Series,
			Timeout:   a.Config.Sources.Indicator.RequestTimeout,
			UserAgent: a.Config.Sources.Indicator.UserAgent,
		}, a.Logger))
	}

	if a.Config.Sources.Logistics.Enabled {
		fetchers = append(fetchers, fetcher.NewLogistics(fetcher.LogisticsOptions{
			BaseURL:   a.Config.Sources.Logistics.BaseURL,
			Timeout:   a.Config.Sources.Logistics.RequestTimeout,
			UserAgent: a.Config.Sources.Logistics.UserAgent,
		}, a.Logger))
	}

	return fetchers
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, errors.New("database.dsn not configured")
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// Run executes the long-running monitoring service: periodic feed polling,
// optional queue consumption, and the query API.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	pipeline := metrics.NewPipeline(registry)

	scorer := scoring.New(store, a.Config.Scoring.WindowDays, a.Logger)
	fetchers := a.newFetchers()
	notifier := a.newNotifier()

	var publisher service.ScoredPublisher
	if a.Config.Kafka.Enabled && a.Config.Kafka.ScoredTopic != "" {
		scored := mq.NewScoredPublisher(mq.NewScoredWriter(a.Config.Kafka))
		defer scored.Close()
		publisher = scored
	}

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		AlignToCycle: a.Config.Scheduler.AlignToCycle,
		StartupDelay: a.Config.Scheduler.StartupDelay,
	}, a.Logger)

	svc := service.New(a.Config, sched, fetchers, scorer, store, notifier, publisher, pipeline, a.Logger)

	if len(fetchers) == 0 && !a.Config.Kafka.Enabled {
		a.Logger.Warn().Msg("no sources enabled; service will idle")
	}

	if a.Config.API.Enabled {
		a.startAPI(ctx, store, registry)
	}

	if a.Config.Kafka.Enabled {
		reader := mq.NewRawReader(a.Config.Kafka)
		go func() {
			defer reader.Close()
			if err := svc.ConsumeRaw(ctx, reader); err != nil && !errors.Is(err, context.Canceled) {
				a.Logger.Error().Err(err).Msg("queue consumer stopped with error")
			}
		}()
	}

	a.Logger.Info().Msg("starting monitoring service")
	err = svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("monitoring service stopped")
	return nil
}

func (a *App) startAPI(ctx context.Context, store *storage.Store, registry *prometheus.Registry) {
	server := &http.Server{
		Addr:              a.Config.API.Addr,
		Handler:           api.New(store, store, registry, a.Logger).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	go func() {
		a.Logger.Info().Str("addr", a.Config.API.Addr).Msg("query api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.Error().Err(err).Msg("query api server error")
		}
	}()
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Metric string
	Start  string
	End    string
	Limit  int
}

// ExportOptions hold parameters for exporting a metric's history.
type ExportOptions struct {
	Metric    string
	Start     string
	End       string
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ReplayOptions configure the raw payload replay job.
type ReplayOptions struct {
	Dir    string
	DryRun bool
}

// RuleOptions carry alert-rule mutations from the CLI.
type RuleOptions struct {
	UserID    string
	Metric    string
	Threshold float64
	Enabled   bool
}
