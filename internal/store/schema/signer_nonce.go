package schema

import "time"

// SignerNonce represents the signer_nonces table - the strictly increasing
// replay-protection counter per signer. A missing row means nonce 0.
type SignerNonce struct {
	// SignerAddress is the checksummed signer address
	SignerAddress string `gorm:"column:signer_address;primaryKey;type:text"`
	// Nonce is the next expected nonce for the signer
	Nonce uint64 `gorm:"column:nonce;not null;default:0"`
	// UpdatedAt is the timestamp of the last nonce consumption
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz;autoUpdateTime"`
}

// TableName specifies the table name for the SignerNonce model
func (SignerNonce) TableName() string {
	return "signer_nonces"
}
