// Package twitter_mock provides a test double for the publisher.
package twitter_mock

import (
	"context"

	"github.com/pengulabs/nft-sales-bot/client/twitter"
)

// PublisherMock implements twitter.Publisher via settable funcs.
type PublisherMock struct {
	PublishFunc func(ctx context.Context, text string, image []byte) error
}

var _ twitter.Publisher = &PublisherMock{}

func (m *PublisherMock) Publish(ctx context.Context, text string, image []byte) error {
	if m.PublishFunc == nil {
		return nil
	}
	return m.PublishFunc(ctx, text, image)
}
