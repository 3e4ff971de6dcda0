// Package coingecko_mock provides a test double for the quote service.
package coingecko_mock

import (
	"context"

	"github.com/pengulabs/nft-sales-bot/client/coingecko"
)

// QuoteServiceMock implements coingecko.QuoteService via settable funcs.
type QuoteServiceMock struct {
	USDQuoteFunc func(ctx context.Context) (float64, error)
}

var _ coingecko.QuoteService = &QuoteServiceMock{}

func (m *QuoteServiceMock) USDQuote(ctx context.Context) (float64, error) {
	if m.USDQuoteFunc == nil {
		return 0, context.Canceled
	}
	return m.USDQuoteFunc(ctx)
}
