package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RegisterMetrics exposes the bot counters as prometheus gauges. Call once
// per process; promauto panics on duplicate registration.
func RegisterMetrics(b Bot) {
	registerGauge("queue_size", "The number of sales waiting to be published", func() int64 {
		return int64(b.Info().QueueSize)
	})
	registerGauge("ledger_size", "The number of sale identifiers recorded as published", func() int64 {
		return int64(b.Info().LedgerSize)
	})
	registerGauge("published_sales", "Sales published since startup", func() int64 {
		return b.Info().PublishedSales
	})
	registerGauge("failed_posts", "Publish attempts that failed since startup", func() int64 {
		return b.Info().FailedPosts
	})
	registerGauge("enqueued_sales", "Sales enqueued since startup", func() int64 {
		return b.Info().EnqueuedSales
	})
}

func registerGauge(name, help string, function func() int64) {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "sales_bot",
		Name:      name,
		Help:      help,
	}, func() float64 {
		return float64(function())
	})
}
