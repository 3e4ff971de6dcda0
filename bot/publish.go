package bot

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-errors/errors"

	"github.com/pengulabs/nft-sales-bot/models"
)

// PublishLoop drains the queue one sale at a time. After each successful
// post it sleeps the tweet interval if more work is pending, to respect the
// publisher's rate expectations. A failed post puts the sale back at the
// tail of the queue; the identifier reaches the ledger only after a
// confirmed success, so a crash can duplicate a post but never lose one.
func (b *bot) PublishLoop(ctx context.Context) error {
	b.log.Debug("PublishLoop: Starting to drain queue")
	for {
		sale, ok := b.queue.Dequeue(ctx, b.cfg.DequeueWait)
		if !ok {
			if ctx.Err() != nil {
				b.log.Debug("PublishLoop: Context canceled, stopping")
				return ctx.Err()
			}
			b.log.Debug("PublishLoop: Queue empty, waiting for sales")
			continue
		}

		if b.ledger.Contains(sale.TransactionVersion) {
			// duplicate that slipped in during this run; heal and move on
			b.log.Info("Skipping already published sale", "transactionVersion", sale.TransactionVersion)
			b.persistQueue()
			continue
		}

		if err := b.publishSale(ctx, sale); err != nil {
			if errors.Is(err, context.Canceled) {
				// requeue so the shutdown flush keeps the sale pending
				b.queue.Enqueue(sale)
				b.log.Info("PublishLoop: Context canceled, stopping")
				return ctx.Err()
			}
			atomic.AddInt64(&b.info.FailedPosts, 1)
			b.log.Error("Failed to publish sale, requeueing",
				"transactionVersion", sale.TransactionVersion,
				"error", err,
			)
			b.queue.Enqueue(sale)
			b.persistQueue()
			if !sleepCtx(ctx, b.cfg.RetryBackoff) {
				return ctx.Err()
			}
			continue
		}

		// Published: commit before anything else so a crash cannot repost
		if err := b.ledger.Record(sale.TransactionVersion); err != nil {
			// the post is live; accept the duplicate risk on next run
			b.log.Error("Failed to record published sale", "transactionVersion", sale.TransactionVersion, "error", err)
		}
		atomic.AddInt64(&b.info.PublishedSales, 1)
		b.persistQueue()

		if b.queue.Size() > 0 {
			b.log.Info("Waiting before next post", "interval", b.cfg.TweetInterval.String(), "queueSize", b.queue.Size())
			if !sleepCtx(ctx, b.cfg.TweetInterval) {
				return ctx.Err()
			}
		}
	}
}

// publishSale formats the sale, attaches its image best-effort, and posts.
func (b *bot) publishSale(ctx context.Context, sale models.SaleRecord) error {
	startTime := time.Now()
	text := b.formatSale(ctx, sale)

	var image []byte
	if sale.TokenImageURI != "" {
		data, err := b.images.Fetch(ctx, sale.TokenImageURI)
		if err != nil {
			// degraded: post without the attachment
			b.log.Warn("Image fetch failed, posting without attachment",
				"transactionVersion", sale.TransactionVersion,
				"error", err,
			)
		} else {
			image = data
		}
	}

	if err := b.poster.Publish(ctx, text, image); err != nil {
		return err
	}
	b.log.Info("Published sale",
		"transactionVersion", sale.TransactionVersion,
		"tokenName", sale.TokenName,
		"elapsed", time.Since(startTime),
	)
	return nil
}

// formatSale renders the tweet text. The USD rate is best-effort: when the
// quote service is down we fall back to the configured rate rather than
// block publication.
func (b *bot) formatSale(ctx context.Context, sale models.SaleRecord) string {
	rate := b.cfg.FallbackUSDRate
	if quote, err := b.quotes.USDQuote(ctx); err != nil {
		b.log.Warn("Quote unavailable, using fallback rate", "fallback", rate, "error", err)
	} else {
		rate = quote
	}

	aptAmount := float64(sale.Price) / priceScale
	usdAmount := aptAmount * rate

	return fmt.Sprintf(
		"🐧 %s #%s bought for %.2f $APT (💵 $%.2f)\nby %s from %s\n%s/txn/%s?network=mainnet\n%s",
		b.cfg.CollectionName,
		sale.TokenIndex(),
		aptAmount,
		usdAmount,
		models.ShortAddress(sale.Buyer),
		models.ShortAddress(sale.Seller),
		b.cfg.ExplorerURL,
		sale.TransactionVersion,
		b.cfg.Hashtags,
	)
}

func (b *bot) persistQueue() {
	if err := b.queue.Persist(); err != nil {
		b.log.Error("Failed to persist queue", "error", err)
	}
}

// sleepCtx waits d unless the context finishes first; it reports whether
// the full duration elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
