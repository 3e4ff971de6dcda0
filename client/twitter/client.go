package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/dghubble/oauth1"
	"github.com/go-errors/errors"
	"github.com/hashicorp/go-retryablehttp"
)

// Publisher posts one formatted message with at most one image attachment.
// There is no partial-success state: either the tweet is live or it is not.
type Publisher interface {
	Publish(ctx context.Context, text string, image []byte) error
}

const (
	MaxRetries            = 2
	DefaultRequestTimeout = 15 * time.Second

	defaultAPIURL    = "https://api.twitter.com"
	defaultUploadURL = "https://upload.twitter.com"
)

type Config struct {
	ConsumerKey    string
	ConsumerSecret string
	AccessToken    string
	AccessSecret   string

	// APIURL and UploadURL are overridable for tests
	APIURL    string
	UploadURL string
}

type client struct {
	client *retryablehttp.Client
	cfg    Config
	log    *slog.Logger
}

var _ Publisher = &client{}

// NewClient builds an OAuth1 user-context client and verifies the
// credentials against the API. A verification failure is fatal: the bot is
// useless without a working publisher, so the caller exits non-zero.
func NewClient(log *slog.Logger, cfg Config) (*client, error) { // revive:disable-line:unexported-return
	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	if cfg.UploadURL == "" {
		cfg.UploadURL = defaultUploadURL
	}
	oauthConfig := oauth1.NewConfig(cfg.ConsumerKey, cfg.ConsumerSecret)
	token := oauth1.NewToken(cfg.AccessToken, cfg.AccessSecret)

	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = MaxRetries
	httpClient.Logger = log
	httpClient.Backoff = retryablehttp.LinearJitterBackoff
	// sign every request with the user token; timeouts live on the outer client
	httpClient.HTTPClient = oauthConfig.Client(oauth1.NoContext, token)
	httpClient.HTTPClient.Timeout = DefaultRequestTimeout

	c := &client{
		client: httpClient,
		cfg:    cfg,
		log:    log,
	}
	if err := c.verifyCredentials(); err != nil {
		return nil, fmt.Errorf("verify twitter credentials: %w", err)
	}
	log.Info("Twitter credentials verified")
	return c, nil
}

func (c *client) verifyCredentials() error {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultRequestTimeout)
	defer cancel()
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.cfg.APIURL+"/2/users/me", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %s: %s", resp.Status, body)
	}
	return nil
}

// Publish uploads the image (when present) and creates the tweet. A media
// upload failure is degraded, not fatal: a persistently rejected image must
// never block the sale from being posted, so the tweet goes out without the
// attachment.
func (c *client) Publish(ctx context.Context, text string, image []byte) error {
	start := time.Now()
	var mediaID string
	if len(image) > 0 {
		id, err := c.uploadMedia(ctx, image)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			c.log.Warn("Media upload failed, posting without attachment", "error", err)
		} else {
			mediaID = id
		}
	}
	if err := c.createTweet(ctx, text, mediaID); err != nil {
		return err
	}
	c.log.Info("Tweet posted", "chars", len(text), "hasImage", mediaID != "", "duration", time.Since(start))
	return nil
}

func (c *client) uploadMedia(ctx context.Context, image []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("media", "media")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(image); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	url := c.cfg.UploadURL + "/1.1/media/upload.json"
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, body.Bytes())
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}
	var uploaded struct {
		MediaIDString string `json:"media_id_string"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if uploaded.MediaIDString == "" {
		return "", fmt.Errorf("upload response missing media id")
	}
	return uploaded.MediaIDString, nil
}

type tweetRequest struct {
	Text  string      `json:"text"`
	Media *tweetMedia `json:"media,omitempty"`
}

type tweetMedia struct {
	MediaIDs []string `json:"media_ids"`
}

func (c *client) createTweet(ctx context.Context, text, mediaID string) error {
	payload := tweetRequest{Text: text}
	if mediaID != "" {
		payload.Media = &tweetMedia{MediaIDs: []string{mediaID}}
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL+"/2/tweets", buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("create tweet: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("create tweet: unexpected status %s: %s", resp.Status, body)
	}
	return nil
}
