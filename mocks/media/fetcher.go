// Package media_mock provides a test double for the image fetcher.
package media_mock

import (
	"context"
	"fmt"

	"github.com/pengulabs/nft-sales-bot/lib/media"
)

// FetcherMock implements media.Fetcher via settable funcs.
type FetcherMock struct {
	FetchFunc func(ctx context.Context, url string) ([]byte, error)
}

var _ media.Fetcher = &FetcherMock{}

func (m *FetcherMock) Fetch(ctx context.Context, url string) ([]byte, error) {
	if m.FetchFunc == nil {
		return nil, fmt.Errorf("no image")
	}
	return m.FetchFunc(ctx, url)
}
