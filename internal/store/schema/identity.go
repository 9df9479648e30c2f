package schema

import "time"

// Identity represents the identities table - one non-transferable identity per
// owner address. The owner address is written once at registration and no code
// path updates it; only TotalRecordCount is ever incremented.
type Identity struct {
	// TokenID is the identity token identifier, assigned sequentially at registration
	TokenID uint64 `gorm:"column:token_id;primaryKey;autoIncrement"`
	// OwnerAddress is the checksummed address the identity is bound to
	OwnerAddress string `gorm:"column:owner_address;not null;type:text;uniqueIndex:idx_identities_owner"`
	// RegisteredAt is the timestamp the identity was created
	RegisteredAt time.Time `gorm:"column:registered_at;not null;type:timestamptz"`
	// TotalRecordCount is the number of record references appended for this identity
	TotalRecordCount uint64 `gorm:"column:total_record_count;not null;default:0"`
}

// TableName specifies the table name for the Identity model
func (Identity) TableName() string {
	return "identities"
}
