package bot

import (
	"context"
	"slices"
	"sync/atomic"
	"time"

	"github.com/go-errors/errors"
	"golang.org/x/sync/errgroup"

	"github.com/pengulabs/nft-sales-bot/models"
)

// Run restores persisted state and runs the two loops until the context is
// cancelled.
//
// IngestLoop (sale source -> queue) -> PublishLoop (queue -> Twitter)
//
// The publish loop and the status reporter run as goroutines; the ingest
// loop runs on the calling goroutine. The queue is the only structure both
// loops touch and it serializes access internally; neither loop holds a
// lock across a network call.
func (b *bot) Run(ctx context.Context) error {
	kept, dropped, err := b.queue.Restore(b.ledger.Contains)
	if err != nil {
		b.log.Error("Failed to restore queue", "error", err)
	} else if kept > 0 || dropped > 0 {
		b.log.Info("Restored queue", "pending", kept, "alreadyPublished", dropped)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errGroup, ctx := errgroup.WithContext(ctx)

	errGroup.Go(func() error {
		return b.PublishLoop(ctx)
	})
	errGroup.Go(func() error {
		return b.ReportStatus(ctx)
	})

	b.log.Info("Starting bot",
		"startTime", b.startTime,
		"checkInterval", b.cfg.CheckInterval.String(),
		"tweetInterval", b.cfg.TweetInterval.String(),
		"restoredSales", kept,
	)

	err = b.IngestLoop(ctx)
	b.log.Info("IngestLoop is done", "error", err)
	cancel()

	return errGroup.Wait()
}

// IngestLoop polls the sale source once per check interval. A failed fetch
// is logged and retried on the next tick; the next tick re-fetches the same
// recent window, so missed ticks are not critical.
func (b *bot) IngestLoop(ctx context.Context) error {
	timer := time.NewTicker(b.cfg.CheckInterval)
	defer timer.Stop()

	for {
		b.ingestTick(ctx)
		select {
		case <-ctx.Done():
			b.log.Debug("IngestLoop: Context canceled, stopping")
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// ingestTick fetches one page of recent sales and enqueues the new ones in
// ascending timestamp order.
func (b *bot) ingestTick(ctx context.Context) {
	sales, err := b.source.RecentSales(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		b.log.Error("Failed to fetch recent sales", "error", err)
		return
	}
	atomic.AddInt64(&b.info.FetchedSales, int64(len(sales)))

	slices.SortFunc(sales, func(x, y models.SaleRecord) int {
		return x.Timestamp.Compare(y.Timestamp)
	})

	added := 0
	for _, sale := range sales {
		if !sale.HasID() {
			atomic.AddInt64(&b.info.DroppedSales, 1)
			b.log.Error("Sale record missing transaction version, dropping", "tokenName", sale.TokenName)
			continue
		}
		if b.ledger.Contains(sale.TransactionVersion) {
			continue
		}
		if !sale.Timestamp.After(b.startTime) {
			// pre-existing history; do not replay sales from before this run
			continue
		}
		b.queue.Enqueue(sale)
		added++
	}
	if added > 0 {
		atomic.AddInt64(&b.info.EnqueuedSales, int64(added))
		b.log.Info("Enqueued new sales", "count", added, "queueSize", b.queue.Size())
		if err := b.queue.Persist(); err != nil {
			b.log.Error("Failed to persist queue after ingest", "error", err)
		}
	} else {
		b.log.Debug("No new sales this check")
	}
}

// ReportStatus periodically logs run counters so an operator can tell the
// bot is alive even when the collection is quiet.
func (b *bot) ReportStatus(ctx context.Context) error {
	timer := time.NewTicker(b.cfg.StatusInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			info := b.Info()
			b.log.Info("STATUS REPORT",
				"queueSize", info.QueueSize,
				"published", info.PublishedSales,
				"failedPosts", info.FailedPosts,
				"fetched", info.FetchedSales,
				"ledgerSize", info.LedgerSize,
			)
		}
	}
}
