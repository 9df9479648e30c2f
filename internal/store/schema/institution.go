package schema

import "time"

// Institution represents the institutions table - administrator-managed
// whitelist of addresses allowed to participate as accessors and record
// authors. Absence of a row means not authorized.
type Institution struct {
	// Address is the checksummed institution address
	Address string `gorm:"column:address;primaryKey;type:text"`
	// DisplayName is the human-readable institution name
	DisplayName string `gorm:"column:display_name;not null;type:text"`
	// Authorized is the current whitelist state; revocation flips it off, the row stays
	Authorized bool `gorm:"column:authorized;not null;default:false"`
	// CreatedAt is the timestamp the institution was first whitelisted
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp of the last authorization change
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Institution model
func (Institution) TableName() string {
	return "institutions"
}
