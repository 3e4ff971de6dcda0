package media

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// Fetcher downloads token images for tweet attachments. Failures are
// expected and non-fatal: the caller publishes without an attachment.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

const (
	MaxRetries            = 1
	DefaultRequestTimeout = 10 * time.Second
	// Twitter rejects images above 5MB
	maxImageBytes = 5 << 20
)

type fetcher struct {
	client *retryablehttp.Client
	log    *slog.Logger
}

var _ Fetcher = &fetcher{}

func NewFetcher(log *slog.Logger) *fetcher { // revive:disable-line:unexported-return
	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = MaxRetries
	httpClient.Logger = log
	httpClient.Backoff = retryablehttp.LinearJitterBackoff
	httpClient.HTTPClient.Timeout = DefaultRequestTimeout
	return &fetcher{client: httpClient, log: log}
}

func (f *fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch image: unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image body: %w", err)
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", maxImageBytes)
	}
	f.log.Debug("Fetched image", "url", url, "bytes", len(data))
	return data, nil
}
