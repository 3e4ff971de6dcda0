package config

import (
	"errors"
	"time"

	flags "github.com/jessevdk/go-flags"
)

type Twitter struct {
	ConsumerKey    string `long:"twitter-consumer-key" env:"TWITTER_CONSUMER_KEY" description:"Twitter API consumer key"`
	ConsumerSecret string `long:"twitter-consumer-secret" env:"TWITTER_CONSUMER_SECRET" description:"Twitter API consumer secret"`
	AccessToken    string `long:"twitter-access-token" env:"TWITTER_ACCESS_TOKEN" description:"Twitter user access token"`
	AccessSecret   string `long:"twitter-access-secret" env:"TWITTER_ACCESS_SECRET" description:"Twitter user access token secret"`
}

func (t Twitter) HasError() error {
	if t.ConsumerKey == "" || t.ConsumerSecret == "" || t.AccessToken == "" || t.AccessSecret == "" {
		return errors.New("all four Twitter credentials are required")
	}
	return nil
}

type Marketplace struct {
	URL            string `long:"marketplace-api-url" env:"MARKETPLACE_API_URL" description:"URL of the marketplace activities endpoint"`                  // nolint:lll
	CollectionSlug string `long:"collection-slug" env:"COLLECTION_SLUG" description:"slug of the NFT collection to watch"`                                 // nolint:lll
	Marketplace    string `long:"marketplace" env:"MARKETPLACE" description:"marketplace filter for the sale source" default:"wapal"`                      // nolint:lll
	PageSize       int    `long:"sales-page-size" env:"SALES_PAGE_SIZE" description:"maximum number of recent sales fetched per check" default:"20"`       // nolint:lll
}

func (m Marketplace) HasError() error {
	if m.URL == "" {
		return errors.New("marketplace API URL is required")
	}
	if m.CollectionSlug == "" {
		return errors.New("collection slug is required")
	}
	return nil
}

type Config struct {
	Twitter     Twitter
	Marketplace Marketplace

	CoinGeckoURL string `long:"coingecko-url" env:"COINGECKO_URL" description:"CoinGecko simple-price endpoint" default:"https://api.coingecko.com/api/v3/simple/price?ids=aptos&vs_currencies=usd"` // nolint:lll
	CoinID       string `long:"coin-id" env:"COIN_ID" description:"CoinGecko coin id of the payment currency" default:"aptos"` // nolint:lll

	CollectionName string `long:"collection-name" env:"COLLECTION_NAME" description:"display name used in the tweet text" required:"true"`       // nolint:lll
	Hashtags       string `long:"hashtags" env:"HASHTAGS" description:"hashtag line appended to each tweet" default:"#Aptos #NFT"`               // nolint:lll
	ExplorerURL    string `long:"explorer-url" env:"EXPLORER_URL" description:"block explorer base URL" default:"https://explorer.aptoslabs.com"` // nolint:lll

	LedgerFile string `long:"ledger-file" env:"LEDGER_FILE" description:"append-only file of published sale identifiers" default:"processed_sales.txt"` // nolint:lll
	QueueFile  string `long:"queue-file" env:"QUEUE_FILE" description:"snapshot file of the pending sale queue" default:"sales_queue.zst"`              // nolint:lll

	CheckInterval time.Duration `long:"check-interval" env:"CHECK_INTERVAL" description:"Interval between sale source polls" default:"3m"` // nolint:lll
	TweetInterval time.Duration `long:"tweet-interval" env:"TWEET_INTERVAL" description:"Minimum interval between posts" default:"5m"`     // nolint:lll

	MetricsAddr string `long:"metrics-addr" env:"METRICS_ADDR" description:"listen address for prometheus metrics, empty disables"` // nolint:lll
}

func (c Config) HasError() error {
	if err := c.Twitter.HasError(); err != nil {
		return err
	}
	if err := c.Marketplace.HasError(); err != nil {
		return err
	}
	return nil
}

func Parse() (*Config, error) {
	var config Config
	parser := flags.NewParser(&config, flags.Default)
	_, err := parser.Parse()
	if err != nil {
		return nil, err
	}
	if err := config.HasError(); err != nil {
		return nil, err
	}
	return &config, nil
}
