package coingecko_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pengulabs/nft-sales-bot/client/coingecko"
)

func TestUSDQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"aptos":{"usd":5.00}}`))
	}))
	defer server.Close()

	client := coingecko.NewClient(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		coingecko.Config{URL: server.URL, CoinID: "aptos"},
	)
	quote, err := client.USDQuote(context.Background())
	require.NoError(t, err)
	require.Equal(t, 5.00, quote)
}

func TestUSDQuoteMissingCoin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"bitcoin":{"usd":60000}}`))
	}))
	defer server.Close()

	client := coingecko.NewClient(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		coingecko.Config{URL: server.URL, CoinID: "aptos"},
	)
	_, err := client.USDQuote(context.Background())
	require.Error(t, err)
}
