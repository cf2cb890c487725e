package stellar

import (
	"github.com/shopspring/decimal"

	"github.com/nucleo/portfolio-tracker/internal/models"
)

// Balance is one entry of an account's balance list on Horizon
type Balance struct {
	Amount      decimal.Decimal `json:"balance"`
	AssetType   string          `json:"asset_type"`
	AssetCode   string          `json:"asset_code,omitempty"`
	AssetIssuer string          `json:"asset_issuer,omitempty"`
}

// IsNative reports whether the balance is denominated in the native asset
func (b *Balance) IsNative() bool {
	return b.AssetType == "native"
}

// AssetID returns the canonical asset identifier for this balance
func (b *Balance) AssetID() string {
	if b.IsNative() {
		return models.NativeAssetID
	}
	return models.MakeAssetID(b.AssetCode, b.AssetIssuer)
}

// Account is the subset of Horizon's account resource the tracker reads
type Account struct {
	AccountID string    `json:"account_id"`
	Balances  []Balance `json:"balances"`
}

// Offer is one price level of an order book side
type Offer struct {
	Price  decimal.Decimal `json:"price"`
	Amount decimal.Decimal `json:"amount"`
}

// OrderBook is Horizon's order book resource for one trading pair.
// Bids are ordered best-first by Horizon.
type OrderBook struct {
	Bids []Offer `json:"bids"`
	Asks []Offer `json:"asks"`
}

// BestBid returns the highest price a buyer is offering, in the buying
// asset, or zero when no bids exist.
func (ob *OrderBook) BestBid() decimal.Decimal {
	if len(ob.Bids) == 0 {
		return decimal.Zero
	}
	return ob.Bids[0].Price
}

// TickerAsset is one asset entry of the external ticker feed
type TickerAsset struct {
	ID            string          `json:"id"`
	Code          string          `json:"code"`
	Issuer        string          `json:"issuer,omitempty"`
	Domain        string          `json:"domain,omitempty"`
	PriceUSD      decimal.Decimal `json:"price_USD"`
	PriceXLM      decimal.Decimal `json:"price_XLM"`
	ActivityScore float64         `json:"activityScore"`
}

// Ticker is the external ticker feed payload
type Ticker struct {
	Assets []TickerAsset `json:"assets"`
}

// NativeUSDPrice returns the ticker's USD-per-XLM rate, or zero when the
// native asset entry is missing.
func (t *Ticker) NativeUSDPrice() decimal.Decimal {
	for _, a := range t.Assets {
		if a.ID == models.NativeAssetID {
			return a.PriceUSD
		}
	}
	return decimal.Zero
}
