package schema

import "time"

// RecordReference represents the record_references table - an append-only
// per-patient list of pointers to externally stored record content. No update
// path exists except the one-way verified flip.
type RecordReference struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// PatientAddress is the patient the record belongs to
	PatientAddress string `gorm:"column:patient_address;not null;type:text;uniqueIndex:idx_record_references_patient_index,priority:1"`
	// RecordIndex is the position in the patient's record list, starting at 0
	RecordIndex uint64 `gorm:"column:record_index;not null;uniqueIndex:idx_record_references_patient_index,priority:2"`
	// ContentAddress is the content-addressed pointer into the external store
	ContentAddress string `gorm:"column:content_address;not null;type:text"`
	// IntegrityHash is the hash of the record content for integrity verification
	IntegrityHash string `gorm:"column:integrity_hash;not null;type:text"`
	// AuthorAddress is the institution that appended the reference
	AuthorAddress string `gorm:"column:author_address;not null;type:text;index:idx_record_references_author"`
	// CreatedAt is the timestamp the reference was appended
	CreatedAt time.Time `gorm:"column:created_at;not null;type:timestamptz"`
	// ClassificationCode is the record classification supplied by the author
	ClassificationCode string `gorm:"column:classification_code;not null;type:text"`
	// RecordKind is the record kind supplied by the author
	RecordKind string `gorm:"column:record_kind;not null;type:text"`
	// Verified may flip true through the audit step, never back to false
	Verified bool `gorm:"column:verified;not null;default:false"`
}

// TableName specifies the table name for the RecordReference model
func (RecordReference) TableName() string {
	return "record_references"
}
