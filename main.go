package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"news-trader/internal/advisor"
	"news-trader/internal/api"
	"news-trader/internal/article"
	"news-trader/internal/engine"
	"news-trader/internal/events"
	"news-trader/internal/export"
	"news-trader/internal/monitor"
	"news-trader/internal/order"
	"news-trader/internal/runner"
	"news-trader/pkg/cache"
	"news-trader/pkg/config"
	"news-trader/pkg/db"
	exspot "news-trader/pkg/exchanges/binance/spot"
	exchange "news-trader/pkg/exchanges/common"
	"news-trader/pkg/exchanges/paper"
)

var log = logrus.WithField("component", "main")

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("config load failed")
	}
	setupLogging(cfg)

	version := os.Getenv("APP_VERSION")
	if version == "" {
		version = "dev"
	}
	log.WithFields(logrus.Fields{"venue": cfg.Venue, "port": cfg.Port, "version": version}).Info("starting news-trader")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := events.NewBus()
	metrics := monitor.NewSystemMetrics()
	(&monitor.Monitor{Bus: bus, Metrics: metrics}).Start(ctx)

	if len(cfg.KafkaBrokers) > 0 {
		exporter := &export.Exporter{Bus: bus, Writer: export.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic)}
		go exporter.Run(ctx)
		log.WithFields(logrus.Fields{"brokers": cfg.KafkaBrokers, "topic": cfg.KafkaTopic}).Info("kafka event export enabled")
	}

	gateway, err := buildGateway(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("venue init failed")
	}

	// Journal is optional; interfaces stay nil when disabled.
	var (
		orderJournal     order.Journal
		directiveJournal runner.DirectiveJournal
		apiJournal       api.Journal
	)
	if cfg.EnableJournal {
		database, err := db.New(cfg.DBPath)
		if err != nil {
			log.WithError(err).Fatal("db init failed")
		}
		defer database.Close()
		if err := db.ApplyMigrations(database); err != nil {
			log.WithError(err).Fatal("db migrations failed")
		}
		orderJournal, directiveJournal, apiJournal = database, database, database
		log.WithField("path", cfg.DBPath).Info("order journal enabled")
	}

	eng := engine.New(engine.Config{
		Gateway:          gateway,
		Journal:          orderJournal,
		Bus:              bus,
		Venue:            cfg.Venue,
		Quote:            cfg.QuoteAsset,
		MaxFee:           cfg.MaxFee,
		BuyPercent:       cfg.BuyPercent,
		LiquidateOnStart: cfg.LiquidateOnStart,
	})

	runCfg := runner.Config{
		Engine:         eng,
		Journal:        directiveJournal,
		Bus:            bus,
		Metrics:        metrics,
		AdviceInterval: cfg.AdviceInterval,
		SweepInterval:  cfg.SweepInterval,
	}
	if cfg.OpenAIAPIKey != "" && len(cfg.Advisor.Feeds) > 0 {
		getters := make([]article.Getter, 0, len(cfg.Advisor.Feeds))
		for _, url := range cfg.Advisor.Feeds {
			getters = append(getters, article.FeedGetter(url))
		}
		runCfg.Articles = article.NewProvider(getters...)
		runCfg.Advisor = advisor.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, advisor.Config{
			Model:        cfg.OpenAIModel,
			Prompt:       cfg.Advisor.Prompt,
			DefaultAsset: cfg.Advisor.DefaultAsset,
		})
		log.WithFields(logrus.Fields{"feeds": len(getters), "model": cfg.OpenAIModel}).Info("advisor enabled")
	} else {
		log.Warn("OPENAI_API_KEY or feeds missing; running expiry sweeps only")
	}

	server := api.NewServer(bus, apiJournal, eng, metrics, api.SystemMeta{
		DryRun:  cfg.Venue == config.VenuePaper,
		Venue:   cfg.Venue,
		Version: version,
	})
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("api server error")
		}
	}()

	if err := runner.New(runCfg).Run(ctx); err != nil {
		log.WithError(err).Error("runner exited")
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("api shutdown failed")
	}
}

func setupLogging(cfg *config.Config) {
	if cfg.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.WithError(err).Warn("invalid LOG_LEVEL, using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

// buildGateway picks the venue adapter. The paper venue prices fills from the
// public Binance ticker, which needs no credentials, through a short-lived
// cache so a sizing lookup and its fill see the same price.
func buildGateway(ctx context.Context, cfg *config.Config) (exchange.Gateway, error) {
	spot := exspot.New(exspot.Config{
		APIKey:     cfg.BinanceAPIKey,
		APISecret:  cfg.BinanceAPISecret,
		Testnet:    cfg.BinanceTestnet,
		RecvWindow: cfg.BinanceRecvWindow,
	})

	switch cfg.Venue {
	case config.VenueBinanceSpot:
		spot.TimeSync().Start(ctx)
		return spot, nil
	default:
		prices, err := cache.NewTickerCache(spot, 5*time.Second)
		if err != nil {
			return nil, fmt.Errorf("ticker cache: %w", err)
		}
		log.WithFields(logrus.Fields{
			"initial_balance": cfg.PaperInitialBalance,
			"assets":          cfg.PaperAssets,
		}).Info("paper venue initialised")
		return paper.New(paper.Config{
			Quote:          cfg.QuoteAsset,
			InitialBalance: cfg.PaperInitialBalance,
			Assets:         cfg.PaperAssets,
			FeeRate:        cfg.PaperFeeRate,
		}, prices), nil
	}
}
