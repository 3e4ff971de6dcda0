package twitter_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pengulabs/nft-sales-bot/client/twitter"
)

func testConfig(apiURL, uploadURL string) twitter.Config {
	return twitter.Config{
		ConsumerKey:    "ck",
		ConsumerSecret: "cs",
		AccessToken:    "at",
		AccessSecret:   "as",
		APIURL:         apiURL,
		UploadURL:      uploadURL,
	}
}

func TestNewClientVerifiesCredentials(t *testing.T) {
	var sawAuth bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/2/users/me", r.URL.Path)
		sawAuth = r.Header.Get("Authorization") != ""
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"id":"1","username":"salesbot"}}`))
	}))
	defer server.Close()

	_, err := twitter.NewClient(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		testConfig(server.URL, server.URL),
	)
	require.NoError(t, err)
	// requests must carry an OAuth1 signature
	require.True(t, sawAuth)
}

func TestNewClientRejectsBadCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"title":"Unauthorized"}`))
	}))
	defer server.Close()

	_, err := twitter.NewClient(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		testConfig(server.URL, server.URL),
	)
	require.Error(t, err)
	require.Contains(t, err.Error(), "verify twitter credentials")
}

func TestPublishTextOnly(t *testing.T) {
	var tweeted struct {
		Text  string `json:"text"`
		Media *struct {
			MediaIDs []string `json:"media_ids"`
		} `json:"media"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/2/users/me":
			_, _ = w.Write([]byte(`{"data":{"id":"1"}}`))
		case "/2/tweets":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&tweeted))
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"data":{"id":"123"}}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client, err := twitter.NewClient(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		testConfig(server.URL, server.URL),
	)
	require.NoError(t, err)

	require.NoError(t, client.Publish(context.Background(), "sold!", nil))
	require.Equal(t, "sold!", tweeted.Text)
	require.Nil(t, tweeted.Media)
}

func TestPublishWithImage(t *testing.T) {
	var mediaIDs []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/2/users/me":
			_, _ = w.Write([]byte(`{"data":{"id":"1"}}`))
		case "/1.1/media/upload.json":
			require.NoError(t, r.ParseMultipartForm(10<<20))
			file, _, err := r.FormFile("media")
			require.NoError(t, err)
			data, err := io.ReadAll(file)
			require.NoError(t, err)
			require.Equal(t, []byte("png-bytes"), data)
			_, _ = w.Write([]byte(`{"media_id_string":"789"}`))
		case "/2/tweets":
			var tweet struct {
				Media struct {
					MediaIDs []string `json:"media_ids"`
				} `json:"media"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&tweet))
			mediaIDs = tweet.Media.MediaIDs
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"data":{"id":"123"}}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client, err := twitter.NewClient(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		testConfig(server.URL, server.URL),
	)
	require.NoError(t, err)

	require.NoError(t, client.Publish(context.Background(), "sold!", []byte("png-bytes")))
	require.Equal(t, []string{"789"}, mediaIDs)
}

// A rejected image must not block the sale announcement: the tweet is
// posted without the attachment.
func TestPublishDegradesOnUploadFailure(t *testing.T) {
	var tweeted struct {
		Text  string `json:"text"`
		Media *struct {
			MediaIDs []string `json:"media_ids"`
		} `json:"media"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/2/users/me":
			_, _ = w.Write([]byte(`{"data":{"id":"1"}}`))
		case "/1.1/media/upload.json":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"errors":[{"message":"media type unrecognized"}]}`))
		case "/2/tweets":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&tweeted))
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"data":{"id":"123"}}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client, err := twitter.NewClient(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		testConfig(server.URL, server.URL),
	)
	require.NoError(t, err)

	require.NoError(t, client.Publish(context.Background(), "sold!", []byte("not-an-image")))
	require.Equal(t, "sold!", tweeted.Text)
	require.Nil(t, tweeted.Media)
}

func TestPublishFailsOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/2/users/me" {
			_, _ = w.Write([]byte(`{"data":{"id":"1"}}`))
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client, err := twitter.NewClient(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		testConfig(server.URL, server.URL),
	)
	require.NoError(t, err)

	err = client.Publish(context.Background(), "sold!", nil)
	require.Error(t, err)
}
