package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"storal-pricer/internal/bot"
	"storal-pricer/internal/catalog"
	"storal-pricer/internal/config"
	"storal-pricer/internal/observability"
	"storal-pricer/internal/quote"
	"storal-pricer/internal/storage"
	rediscache "storal-pricer/internal/storage/redis"
	"storal-pricer/internal/webhook"
	"storal-pricer/pkg/api"
	"storal-pricer/pkg/logger"
	"storal-pricer/pkg/redis"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	zapLogger, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	if err := run(ctx, cfg, zapLogger); err != nil {
		zapLogger.Fatal("Pricer stopped with error", zap.Error(err))
	}
	zapLogger.Info("Pricer shutdown gracefully")
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	base, err := loadCatalog(cfg.Catalog)
	if err != nil {
		return err
	}
	log.Info("Catalog loaded",
		zap.String("version", base.Version()),
		zap.Int("models", len(base.Models())))

	var (
		serviceOpts []quote.Option
		botOpts     = []bot.Option{bot.WithReportsDir(cfg.Telegram.ReportsDir)}
	)

	if cfg.Database.Enabled() {
		pgStorage, err := storage.NewPostgresStorage(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("init PostgreSQL storage: %w", err)
		}
		defer pgStorage.Close()

		serviceOpts = append(serviceOpts, quote.WithOverrides(pgStorage))
		botOpts = append(botOpts, bot.WithStore(pgStorage))
	}

	if cfg.Redis.Enabled() {
		redisClient, err := redis.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
		if err != nil {
			return fmt.Errorf("init Redis: %w", err)
		}
		defer redisClient.Close()

		serviceOpts = append(serviceOpts, quote.WithCache(rediscache.NewQuoteCache(redisClient, cfg.Redis.QuoteTTL)))
		botOpts = append(botOpts, bot.WithRateLimiter(redisClient))
	}

	if cfg.Catalog.URL != "" {
		apiClient := api.NewClient(cfg.Catalog.URL, cfg.Catalog.APIKey, cfg.Catalog.RequestTimeout, log)
		serviceOpts = append(serviceOpts, quote.WithCatalogSource(apiClient))
	}

	svc := quote.NewService(base, log, serviceOpts...)

	// Applies persisted overrides and, when configured, the remote catalog.
	if err := svc.Reload(ctx); err != nil {
		log.Warn("Initial catalog reload failed, serving the local catalog", zap.Error(err))
	}

	if cfg.Catalog.RefreshInterval > 0 {
		go svc.RunRefresher(ctx, cfg.Catalog.RefreshInterval)
	}

	observability.Start(ctx, cfg.HTTP.MetricsAddr, log)

	if cfg.HTTP.WebhookSecret != "" {
		hooks := webhook.NewHandler(svc, cfg.HTTP.WebhookSecret, log)
		go func() {
			if err := webhook.Serve(ctx, cfg.HTTP.Addr, hooks, log); err != nil {
				log.Error("Webhook server failed", zap.Error(err))
			}
		}()
	}

	if cfg.Telegram.Token == "" {
		log.Info("No Telegram token configured, running without bot")
		<-ctx.Done()
		return nil
	}

	tgBot, err := bot.New(cfg, svc, log, botOpts...)
	if err != nil {
		return fmt.Errorf("create bot: %w", err)
	}
	return tgBot.Start(ctx)
}

func loadCatalog(cfg config.CatalogConfig) (*catalog.Catalog, error) {
	if cfg.Path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(cfg.Path)
}
