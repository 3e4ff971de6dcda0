package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// QuoteService returns the current USD quote for the payment currency.
type QuoteService interface {
	USDQuote(ctx context.Context) (float64, error)
}

const (
	MaxRetries            = 2
	DefaultRequestTimeout = 10 * time.Second
)

type Config struct {
	// URL is the simple-price endpoint including query parameters,
	// e.g. https://api.coingecko.com/api/v3/simple/price?ids=aptos&vs_currencies=usd
	URL string
	// CoinID is the key to look up in the response ("aptos")
	CoinID string
}

type client struct {
	client *retryablehttp.Client
	cfg    Config
	log    *slog.Logger
}

var _ QuoteService = &client{}

func NewClient(log *slog.Logger, cfg Config) *client { // revive:disable-line:unexported-return
	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = MaxRetries
	httpClient.Logger = log
	httpClient.Backoff = retryablehttp.LinearJitterBackoff
	httpClient.HTTPClient.Timeout = DefaultRequestTimeout
	return &client{
		client: httpClient,
		cfg:    cfg,
		log:    log,
	}
}

// USDQuote fetches the spot USD price. Callers treat failure as degraded
// and substitute a fallback rate; this never blocks publication.
func (c *client) USDQuote(ctx context.Context) (float64, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL, nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch quote: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("fetch quote: unexpected status %s", resp.Status)
	}
	// {"aptos":{"usd":4.5}}
	var quotes map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&quotes); err != nil {
		return 0, fmt.Errorf("decode quote response: %w", err)
	}
	quote, ok := quotes[c.cfg.CoinID]["usd"]
	if !ok {
		return 0, fmt.Errorf("quote response missing %s/usd", c.cfg.CoinID)
	}
	c.log.Debug("Fetched USD quote", "coin", c.cfg.CoinID, "usd", quote)
	return quote, nil
}
