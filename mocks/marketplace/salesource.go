// Package marketplace_mock provides a test double for the sale source.
package marketplace_mock

import (
	"context"

	"github.com/pengulabs/nft-sales-bot/client/marketplace"
	"github.com/pengulabs/nft-sales-bot/models"
)

// SaleSourceMock implements marketplace.SaleSource via settable funcs.
type SaleSourceMock struct {
	RecentSalesFunc func(ctx context.Context) ([]models.SaleRecord, error)
}

var _ marketplace.SaleSource = &SaleSourceMock{}

func (m *SaleSourceMock) RecentSales(ctx context.Context) ([]models.SaleRecord, error) {
	if m.RecentSalesFunc == nil {
		return nil, nil
	}
	return m.RecentSalesFunc(ctx)
}
