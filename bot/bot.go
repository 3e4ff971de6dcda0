package bot

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/pengulabs/nft-sales-bot/client/coingecko"
	"github.com/pengulabs/nft-sales-bot/client/marketplace"
	"github.com/pengulabs/nft-sales-bot/client/twitter"
	"github.com/pengulabs/nft-sales-bot/lib/ledger"
	"github.com/pengulabs/nft-sales-bot/lib/media"
	"github.com/pengulabs/nft-sales-bot/lib/salequeue"
)

type Bot interface {
	// Run restores persisted state and drives the ingest and publish loops
	// until the context is cancelled
	Run(ctx context.Context) error

	// IngestLoop polls the sale source every check interval and enqueues
	// sales that are new, identified, and newer than the bot start time.
	// It runs until the context is cancelled.
	IngestLoop(ctx context.Context) error

	// PublishLoop drains the queue one sale at a time, at most one post per
	// tweet interval. It runs until the context is cancelled.
	PublishLoop(ctx context.Context) error

	Info() Info

	Close() error
}

const (
	defaultCheckInterval  = 3 * time.Minute
	defaultTweetInterval  = 5 * time.Minute
	defaultRetryBackoff   = 5 * time.Second
	defaultDequeueWait    = 30 * time.Second
	defaultStatusInterval = 30 * time.Second

	// priceScale converts integer minor units (octas) to whole APT
	priceScale = 100_000_000
)

type Config struct {
	CheckInterval  time.Duration
	TweetInterval  time.Duration
	RetryBackoff   time.Duration
	DequeueWait    time.Duration
	StatusInterval time.Duration

	// CollectionName leads the tweet text ("Aptos Penguins")
	CollectionName string
	Hashtags       string
	ExplorerURL    string
	// FallbackUSDRate is used when the quote service is unavailable
	FallbackUSDRate float64
}

// Info carries run counters; the int64 fields are updated atomically.
type Info struct {
	FetchedSales   int64
	EnqueuedSales  int64
	PublishedSales int64
	FailedPosts    int64
	DroppedSales   int64
	QueueSize      int
	LedgerSize     int
}

type bot struct {
	log    *slog.Logger
	source marketplace.SaleSource
	quotes coingecko.QuoteService
	poster twitter.Publisher
	images media.Fetcher
	ledger *ledger.Ledger
	queue  *salequeue.Queue
	cfg    Config
	info   Info

	// sales timestamped at or before startTime are pre-existing history
	startTime time.Time
}

func New(
	log *slog.Logger,
	source marketplace.SaleSource,
	quotes coingecko.QuoteService,
	poster twitter.Publisher,
	images media.Fetcher,
	led *ledger.Ledger,
	queue *salequeue.Queue,
	cfg Config,
) Bot {
	b := &bot{
		log:       log.With("module", "bot"),
		source:    source,
		quotes:    quotes,
		poster:    poster,
		images:    images,
		ledger:    led,
		queue:     queue,
		cfg:       cfg,
		startTime: time.Now().UTC(),
	}
	if b.cfg.CheckInterval == 0 {
		b.cfg.CheckInterval = defaultCheckInterval
	}
	if b.cfg.TweetInterval == 0 {
		b.cfg.TweetInterval = defaultTweetInterval
	}
	if b.cfg.RetryBackoff == 0 {
		b.cfg.RetryBackoff = defaultRetryBackoff
	}
	if b.cfg.DequeueWait == 0 {
		b.cfg.DequeueWait = defaultDequeueWait
	}
	if b.cfg.StatusInterval == 0 {
		b.cfg.StatusInterval = defaultStatusInterval
	}
	if b.cfg.FallbackUSDRate == 0 {
		b.cfg.FallbackUSDRate = 4.50
	}
	return b
}

func (b *bot) Info() Info {
	return Info{
		FetchedSales:   atomic.LoadInt64(&b.info.FetchedSales),
		EnqueuedSales:  atomic.LoadInt64(&b.info.EnqueuedSales),
		PublishedSales: atomic.LoadInt64(&b.info.PublishedSales),
		FailedPosts:    atomic.LoadInt64(&b.info.FailedPosts),
		DroppedSales:   atomic.LoadInt64(&b.info.DroppedSales),
		QueueSize:      b.queue.Size(),
		LedgerSize:     b.ledger.Size(),
	}
}

// Close flushes any remaining queue contents to disk. The ledger already
// reflects all completed work.
func (b *bot) Close() error {
	b.log.Info("Flushing queue before exit", "pending", b.queue.Size())
	if err := b.queue.Persist(); err != nil {
		return err
	}
	return b.ledger.Close()
}
