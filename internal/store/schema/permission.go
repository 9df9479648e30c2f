package schema

import "time"

// Permission represents the permissions table - at most one live row per
// (patient, accessor) pair; granting again overwrites (last-writer-wins).
// Rows are never deleted: a past grant and its expiry are audit facts.
type Permission struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// PatientAddress is the patient side of the pair
	PatientAddress string `gorm:"column:patient_address;not null;type:text;uniqueIndex:idx_permissions_pair,priority:1"`
	// AccessorAddress is the institution granted access
	AccessorAddress string `gorm:"column:accessor_address;not null;type:text;uniqueIndex:idx_permissions_pair,priority:2"`
	// Granted is false once revoked; expiry is evaluated lazily, not stored here
	Granted bool `gorm:"column:granted;not null"`
	// AccessClass is 'read_only' or 'full_access'
	AccessClass string `gorm:"column:access_class;not null;type:text"`
	// GrantedAt is the timestamp of the latest grant
	GrantedAt time.Time `gorm:"column:granted_at;not null;type:timestamptz"`
	// ExpiresAt is the grant expiry; NULL means no expiry
	ExpiresAt *time.Time `gorm:"column:expires_at;type:timestamptz"`
}

// TableName specifies the table name for the Permission model
func (Permission) TableName() string {
	return "permissions"
}
