package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/pengulabs/nft-sales-bot/models"
)

// SaleSource fetches recent sale events for one collection.
type SaleSource interface {
	RecentSales(ctx context.Context) ([]models.SaleRecord, error)
}

const (
	MaxRetries            = 2
	DefaultRequestTimeout = 15 * time.Second
)

type Config struct {
	// URL is the activities endpoint of the marketplace aggregator API
	URL            string
	CollectionSlug string
	Marketplace    string
	// PageSize bounds how many recent sales one poll fetches
	PageSize int
}

type client struct {
	client *retryablehttp.Client
	cfg    Config
	log    *slog.Logger
}

var _ SaleSource = &client{}

func NewClient(log *slog.Logger, cfg Config) *client { // revive:disable-line:unexported-return
	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = MaxRetries
	httpClient.Logger = log
	checkRetry := func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		yes, err2 := retryablehttp.DefaultRetryPolicy(ctx, resp, err)
		if yes {
			if resp == nil {
				log.Warn("Retrying request to sale source", "error", err2)
			} else {
				// DefaultRetryPolicy returns a nil error for retryable statuses
				log.Warn("Retrying request to sale source", "statusCode", resp.Status)
			}
		}
		return yes, err2
	}
	httpClient.CheckRetry = checkRetry
	httpClient.Backoff = retryablehttp.LinearJitterBackoff
	httpClient.HTTPClient.Timeout = DefaultRequestTimeout
	if cfg.PageSize == 0 {
		cfg.PageSize = 20
	}
	return &client{
		client: httpClient,
		cfg:    cfg,
		log:    log,
	}
}

// RecentSales fetches the most recent page of sale events. Ordering of the
// response is not relied upon; the caller sorts by timestamp.
func (c *client) RecentSales(ctx context.Context) ([]models.SaleRecord, error) {
	params := url.Values{}
	params.Set("page", "1")
	params.Set("take", fmt.Sprintf("%d", c.cfg.PageSize))
	params.Set("collectionSlug", c.cfg.CollectionSlug)
	params.Set("type", "sales")
	params.Set("marketplace", c.cfg.Marketplace)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch recent sales: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch recent sales: unexpected status %s", resp.Status)
	}
	var sales []models.SaleRecord
	if err := json.NewDecoder(resp.Body).Decode(&sales); err != nil {
		return nil, fmt.Errorf("decode sales response: %w", err)
	}
	c.log.Debug("Fetched recent sales", "count", len(sales))
	return sales, nil
}
