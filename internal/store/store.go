package store

import (
	"context"

	"github.com/anantaryaaa/health-record-dapps-sub000/internal/store/schema"
)

// Store defines the interface for ledger state persistence.
// Composite methods (ResolveAccessRequest, AppendRecordReference, ConsumeNonce)
// are transactional: they either apply all of their effects or none.
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore
type Store interface {
	// GetIdentity retrieves the identity bound to an owner address, nil if none exists
	GetIdentity(ctx context.Context, ownerAddress string) (*schema.Identity, error)
	// CreateIdentity inserts a new identity; fails if the owner address is taken
	CreateIdentity(ctx context.Context, identity *schema.Identity) error

	// GetInstitution retrieves an institution row, nil if never whitelisted
	GetInstitution(ctx context.Context, address string) (*schema.Institution, error)
	// UpsertInstitution creates or updates an institution's whitelist state
	UpsertInstitution(ctx context.Context, institution *schema.Institution) error

	// GetPermission retrieves the permission for a (patient, accessor) pair, nil if none
	GetPermission(ctx context.Context, patientAddress, accessorAddress string) (*schema.Permission, error)
	// UpsertPermission writes the permission for a pair, overwriting any previous state
	UpsertPermission(ctx context.Context, permission *schema.Permission) error

	// HasPendingRequest reports whether an unresolved request exists for the pair
	HasPendingRequest(ctx context.Context, patientAddress, institutionAddress string) (bool, error)
	// AppendAccessRequest appends a request to the patient's list and returns its index
	AppendAccessRequest(ctx context.Context, request *schema.AccessRequest) (uint64, error)
	// GetAccessRequest retrieves a request by patient and index, nil if out of range
	GetAccessRequest(ctx context.Context, patientAddress string, requestIndex uint64) (*schema.AccessRequest, error)
	// ListAccessRequests lists a patient's requests ordered by index
	ListAccessRequests(ctx context.Context, patientAddress string) ([]schema.AccessRequest, error)
	// ResolveAccessRequest moves a pending request to a terminal status and, when
	// permission is non-nil, writes that permission in the same transaction
	ResolveAccessRequest(ctx context.Context, patientAddress string, requestIndex uint64, status string, permission *schema.Permission) error

	// AppendRecordReference appends a record reference and increments the patient's
	// identity record count in the same transaction, returning the record index
	AppendRecordReference(ctx context.Context, record *schema.RecordReference) (uint64, error)
	// ListRecordReferences lists a patient's record references ordered by index
	ListRecordReferences(ctx context.Context, patientAddress string) ([]schema.RecordReference, error)
	// GetRecordReference retrieves a record reference by patient and index, nil if out of range
	GetRecordReference(ctx context.Context, patientAddress string, recordIndex uint64) (*schema.RecordReference, error)
	// MarkRecordVerified flips a record's verified flag to true; already-verified is a no-op
	MarkRecordVerified(ctx context.Context, patientAddress string, recordIndex uint64) error

	// GetNonce retrieves the next expected nonce for a signer (0 if never seen)
	GetNonce(ctx context.Context, signerAddress string) (uint64, error)
	// ConsumeNonce atomically compares the stored nonce against expected and
	// increments it; returns domain.ErrNonceMismatch when they differ
	ConsumeNonce(ctx context.Context, signerAddress string, expected uint64) error
}
