package domain

import (
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// AccessClass represents the class of access a patient grants to an accessor
type AccessClass string

const (
	AccessClassReadOnly   AccessClass = "read_only"
	AccessClassFullAccess AccessClass = "full_access"
)

// IsValidAccessClass checks if an access class is valid
func IsValidAccessClass(class AccessClass) bool {
	return class == AccessClassReadOnly || class == AccessClassFullAccess
}

// RequestStatus represents the state of an institution-initiated access request
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// EventKind represents the kind of ledger audit event
type EventKind string

const (
	EventKindIdentityRegistered    EventKind = "identity_registered"
	EventKindInstitutionAuthorized EventKind = "institution_authorized"
	EventKindInstitutionRevoked    EventKind = "institution_revoked"
	EventKindAccessGranted         EventKind = "access_granted"
	EventKindAccessRevoked         EventKind = "access_revoked"
	EventKindAccessRequested       EventKind = "access_requested"
	EventKindRequestApproved       EventKind = "request_approved"
	EventKindRequestRejected       EventKind = "request_rejected"
	EventKindRecordAdded           EventKind = "record_added"
	EventKindRecordVerified        EventKind = "record_verified"
)

// Identity represents a patient's unique, non-transferable on-ledger identity.
// The owning address is bound at creation and there is no operation that
// reassigns it.
type Identity struct {
	OwnerAddress     string    `json:"owner_address"`
	TokenID          uint64    `json:"token_id"`
	RegisteredAt     time.Time `json:"registered_at"`
	TotalRecordCount uint64    `json:"total_record_count"`
}

// Institution represents an administrator-whitelisted participant
type Institution struct {
	Address     string `json:"address"`
	DisplayName string `json:"display_name"`
	Authorized  bool   `json:"authorized"`
}

// Permission represents the live consent state for a (patient, accessor) pair.
// ExpiresAt == nil means the grant never expires. Expiry is evaluated lazily
// at query time; expired rows are kept as audit facts, never deleted.
type Permission struct {
	PatientAddress  string      `json:"patient_address"`
	AccessorAddress string      `json:"accessor_address"`
	Granted         bool        `json:"granted"`
	AccessClass     AccessClass `json:"access_class"`
	GrantedAt       time.Time   `json:"granted_at"`
	ExpiresAt       *time.Time  `json:"expires_at,omitempty"`
}

// Live reports whether the permission grants access at the given instant
func (p *Permission) Live(now time.Time) bool {
	if p == nil || !p.Granted {
		return false
	}
	return p.ExpiresAt == nil || now.Before(*p.ExpiresAt)
}

// AccessRequest represents an institution-initiated workflow item preceding a
// Permission. Status transitions are one-way: pending -> approved | rejected.
type AccessRequest struct {
	PatientAddress     string        `json:"patient_address"`
	RequestIndex       uint64        `json:"request_index"`
	InstitutionAddress string        `json:"institution_address"`
	InstitutionName    string        `json:"institution_name"`
	RequestedAt        time.Time     `json:"requested_at"`
	DurationSeconds    uint64        `json:"duration_seconds"`
	Message            string        `json:"message"`
	Status             RequestStatus `json:"status"`
}

// RecordReference represents an on-ledger pointer to off-ledger record content.
// References are append-only per patient; only Verified may change, and only
// from false to true.
type RecordReference struct {
	PatientAddress     string    `json:"patient_address"`
	RecordIndex        uint64    `json:"record_index"`
	ContentAddress     string    `json:"content_address"`
	IntegrityHash      string    `json:"integrity_hash"`
	AuthorAddress      string    `json:"author_address"`
	CreatedAt          time.Time `json:"created_at"`
	ClassificationCode string    `json:"classification_code"`
	RecordKind         string    `json:"record_kind"`
	Verified           bool      `json:"verified"`
}

// LedgerEvent is the audit event published after every successful mutation
type LedgerEvent struct {
	EventID         string    `json:"event_id"`
	Kind            EventKind `json:"kind"`
	PatientAddress  string    `json:"patient_address,omitempty"`
	AccessorAddress string    `json:"accessor_address,omitempty"`
	TransactionID   string    `json:"transaction_id,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// IsValidAddress checks if an address is a valid hex address
func IsValidAddress(address string) bool {
	return common.IsHexAddress(address)
}

// NormalizeAddress normalizes an address to its EIP-55 checksum form.
// All addresses are stored and compared in this form.
func NormalizeAddress(address string) string {
	if strings.HasPrefix(address, "0x") || strings.HasPrefix(address, "0X") {
		return common.HexToAddress(address).String()
	}
	return address
}

// SameAddress compares two addresses ignoring checksum casing
func SameAddress(a, b string) bool {
	return common.HexToAddress(a) == common.HexToAddress(b)
}
