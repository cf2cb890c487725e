package models

import (
	"fmt"
	"time"
)

// NativeAssetCode is the code of the Stellar network's built-in currency.
const NativeAssetCode = "XLM"

// NativeAssetID identifies the native asset in price maps and balances.
// Issued assets use "CODE-ISSUER"; the native asset has no issuer.
const NativeAssetID = NativeAssetCode + "-native"

// Asset represents a Stellar asset tracked by the service.
// (code, issuer) is unique; the native asset is a singleton with no issuer.
type Asset struct {
	ID            string    `json:"id" db:"id"`
	Code          string    `json:"code" db:"code"`
	IssuerAddress *string   `json:"issuerAddress,omitempty" db:"issuer_address"`
	AssetID       string    `json:"assetId" db:"asset_id"`
	Domain        *string   `json:"domain,omitempty" db:"domain"`
	Color         *string   `json:"color,omitempty" db:"color"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}

// IsNative reports whether this is the network's built-in currency
func (a *Asset) IsNative() bool {
	return a.IssuerAddress == nil
}

// MakeAssetID builds the canonical asset identifier for a code/issuer pair.
// An empty issuer denotes the native asset.
func MakeAssetID(code, issuer string) string {
	if issuer == "" {
		return fmt.Sprintf("%s-native", code)
	}
	return fmt.Sprintf("%s-%s", code, issuer)
}
