package schema

import "time"

// AccessRequest represents the access_requests table - a per-patient ordered
// list of institution-initiated requests. RequestIndex is dense per patient
// and is the index callers use over the wire. Status only ever moves away
// from 'pending'.
type AccessRequest struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// PatientAddress is the patient the request targets
	PatientAddress string `gorm:"column:patient_address;not null;type:text;uniqueIndex:idx_access_requests_patient_index,priority:1"`
	// RequestIndex is the position in the patient's request list, starting at 0
	RequestIndex uint64 `gorm:"column:request_index;not null;uniqueIndex:idx_access_requests_patient_index,priority:2"`
	// InstitutionAddress is the requesting institution
	InstitutionAddress string `gorm:"column:institution_address;not null;type:text;index:idx_access_requests_institution"`
	// InstitutionName is the display name the institution supplied with the request
	InstitutionName string `gorm:"column:institution_name;not null;type:text"`
	// RequestedAt is the timestamp the request was appended
	RequestedAt time.Time `gorm:"column:requested_at;not null;type:timestamptz"`
	// DurationSeconds is the access duration the institution asked for
	DurationSeconds uint64 `gorm:"column:duration_seconds;not null"`
	// Message is the free-form note shown to the patient
	Message string `gorm:"column:message;not null;type:text"`
	// Status is 'pending', 'approved' or 'rejected'
	Status string `gorm:"column:status;not null;type:text"`
}

// TableName specifies the table name for the AccessRequest model
func (AccessRequest) TableName() string {
	return "access_requests"
}
