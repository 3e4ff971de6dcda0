package models

import (
	"fmt"
	"strings"
	"time"
)

// SaleRecord is one marketplace sale event. The transaction version is the
// stable identifier used for deduplication; records are immutable once
// received from the source.
type SaleRecord struct {
	TransactionVersion string    `json:"transactionVersion"`
	Timestamp          time.Time `json:"transactionTimestamp"`
	Buyer              string    `json:"buyer"`
	Seller             string    `json:"seller"`
	// Price in minor units (octas, 1e8 per APT)
	Price         int64  `json:"price"`
	TokenName     string `json:"tokenName"`
	TokenImageURI string `json:"tokenImageUri,omitempty"`
}

// HasID reports whether the record carries its identifier. Records without
// one cannot be deduplicated and must be dropped.
func (s SaleRecord) HasID() bool {
	return s.TransactionVersion != ""
}

// TokenIndex extracts the trailing numeric suffix of the token name
// ("Penguin #123" -> "123"). Returns "?" when the name has no suffix.
func (s SaleRecord) TokenIndex() string {
	if idx := strings.LastIndex(s.TokenName, "#"); idx >= 0 {
		return s.TokenName[idx+1:]
	}
	return "?"
}

// ShortAddress truncates an account address for display: 0x1a2b3c...9f0e
func ShortAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return fmt.Sprintf("%s...%s", addr[:6], addr[len(addr)-4:])
}
