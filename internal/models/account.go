package models

import (
	"time"
)

// StellarAccount is a public ledger address linked to a profile. A profile
// may link several accounts; each address belongs to exactly one profile.
// Accounts are removed automatically when Horizon reports the address does
// not exist on the network.
type StellarAccount struct {
	ID        string    `json:"id" db:"id"`
	PublicKey string    `json:"publicKey" db:"public_key"`
	ProfileID string    `json:"profileId" db:"profile_id"`
	Name      *string   `json:"name,omitempty" db:"name"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
