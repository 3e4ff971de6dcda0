package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pengulabs/nft-sales-bot/bot"
	"github.com/pengulabs/nft-sales-bot/client/coingecko"
	"github.com/pengulabs/nft-sales-bot/client/marketplace"
	"github.com/pengulabs/nft-sales-bot/client/twitter"
	"github.com/pengulabs/nft-sales-bot/config"
	"github.com/pengulabs/nft-sales-bot/lib/ledger"
	"github.com/pengulabs/nft-sales-bot/lib/media"
	"github.com/pengulabs/nft-sales-bot/lib/salequeue"
)

func init() {
	// always use UTC
	time.Local = time.UTC
}

func main() {
	// credentials commonly live in a .env next to the binary; absence is fine
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	cfg, err := config.Parse()
	if err != nil {
		logger.Error("Failed to parse config", "error", err)
		os.Exit(1)
	}

	// invalid credentials are fatal: the bot cannot do anything without them
	poster, err := twitter.NewClient(logger, twitter.Config{
		ConsumerKey:    cfg.Twitter.ConsumerKey,
		ConsumerSecret: cfg.Twitter.ConsumerSecret,
		AccessToken:    cfg.Twitter.AccessToken,
		AccessSecret:   cfg.Twitter.AccessSecret,
	})
	if err != nil {
		logger.Error("Failed to initialize Twitter client", "error", err)
		os.Exit(1)
	}

	source := marketplace.NewClient(logger, marketplace.Config{
		URL:            cfg.Marketplace.URL,
		CollectionSlug: cfg.Marketplace.CollectionSlug,
		Marketplace:    cfg.Marketplace.Marketplace,
		PageSize:       cfg.Marketplace.PageSize,
	})
	quotes := coingecko.NewClient(logger, coingecko.Config{
		URL:    cfg.CoinGeckoURL,
		CoinID: cfg.CoinID,
	})
	images := media.NewFetcher(logger)

	led, err := ledger.Open(cfg.LedgerFile)
	if err != nil {
		logger.Error("Failed to open ledger", "error", err)
		os.Exit(1)
	}
	logger.Info("Loaded ledger", "publishedSales", led.Size())

	queue, err := salequeue.New(cfg.QueueFile)
	if err != nil {
		logger.Error("Failed to create queue", "error", err)
		os.Exit(1)
	}

	b := bot.New(logger, source, quotes, poster, images, led, queue, bot.Config{
		CheckInterval:  cfg.CheckInterval,
		TweetInterval:  cfg.TweetInterval,
		CollectionName: cfg.CollectionName,
		Hashtags:       cfg.Hashtags,
		ExplorerURL:    cfg.ExplorerURL,
	})

	if cfg.MetricsAddr != "" {
		bot.RegisterMetrics(b)
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddr, nil); err != nil {
				logger.Error("Metrics listener failed", "error", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- b.Run(ctx)
	}()

	quit := make(chan os.Signal, 1)
	// handle Interrupt (ctrl-c) and Term, used by `kill` et al
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-quit:
		logger.Warn("Caught UNIX signal, shutting down", "signal", s.String())
		cancel()
		<-done
	case err := <-done:
		logger.Error("Bot stopped unexpectedly", "error", err)
		cancel()
	}

	if err := b.Close(); err != nil {
		logger.Error("Failed to flush state on shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("Shutdown complete")
}
