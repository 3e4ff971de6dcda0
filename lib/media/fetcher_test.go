package media_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pengulabs/nft-sales-bot/lib/media"
)

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer server.Close()

	fetcher := media.NewFetcher(slog.New(slog.NewTextHandler(io.Discard, nil)))
	data, err := fetcher.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	require.Equal(t, []byte("png-bytes"), data)
}

func TestFetchRejectsOversizedImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.Copy(w, bytes.NewReader(make([]byte, 6<<20)))
	}))
	defer server.Close()

	fetcher := media.NewFetcher(slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := fetcher.Fetch(context.Background(), server.URL)
	require.Error(t, err)
}

func TestFetchFailsOnMissingImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := media.NewFetcher(slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := fetcher.Fetch(context.Background(), server.URL)
	require.Error(t, err)
}
