package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anantaryaaa/health-record-dapps-sub000/internal/domain"
	"github.com/anantaryaaa/health-record-dapps-sub000/internal/store/schema"
)

const (
	testPatientAddress     = "0x1111111111111111111111111111111111111111"
	testInstitutionAddress = "0x2222222222222222222222222222222222222222"
	testOtherInstitution   = "0x3333333333333333333333333333333333333333"
	testSignerAddress      = "0x4444444444444444444444444444444444444444"
)

// =============================================================================
// Test Data Builders
// =============================================================================

// buildTestIdentity creates a test identity row
func buildTestIdentity(owner string) *schema.Identity {
	return &schema.Identity{
		OwnerAddress: owner,
		RegisteredAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

// buildTestInstitution creates a test institution row
func buildTestInstitution(address, name string, authorized bool) *schema.Institution {
	return &schema.Institution{
		Address:     address,
		DisplayName: name,
		Authorized:  authorized,
	}
}

// buildTestPermission creates a test permission row
func buildTestPermission(patient, accessor string, class domain.AccessClass, expiresAt *time.Time) *schema.Permission {
	return &schema.Permission{
		PatientAddress:  patient,
		AccessorAddress: accessor,
		Granted:         true,
		AccessClass:     string(class),
		GrantedAt:       time.Now().UTC().Truncate(time.Microsecond),
		ExpiresAt:       expiresAt,
	}
}

// buildTestAccessRequest creates a test access request row
func buildTestAccessRequest(patient, institution string, durationSeconds uint64) *schema.AccessRequest {
	return &schema.AccessRequest{
		PatientAddress:     patient,
		InstitutionAddress: institution,
		InstitutionName:    "General Hospital",
		RequestedAt:        time.Now().UTC().Truncate(time.Microsecond),
		DurationSeconds:    durationSeconds,
		Message:            "annual checkup follow-up",
		Status:             string(domain.RequestStatusPending),
	}
}

// buildTestRecordReference creates a test record reference row
func buildTestRecordReference(patient, author string) *schema.RecordReference {
	return &schema.RecordReference{
		PatientAddress:     patient,
		ContentAddress:     "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG",
		IntegrityHash:      "0x9c22ff5f21f0b81b113e63f7db6da94fedef11b2119b4088b89664fb9a3cb658",
		AuthorAddress:      author,
		CreatedAt:          time.Now().UTC().Truncate(time.Microsecond),
		ClassificationCode: "LAB",
		RecordKind:         "blood_panel",
	}
}

// =============================================================================
// Identity Tests
// =============================================================================

func testIdentityCreateAndGet(t *testing.T, s Store) {
	ctx := context.Background()

	// Unknown owner yields nil, not an error
	got, err := s.GetIdentity(ctx, testPatientAddress)
	require.NoError(t, err)
	assert.Nil(t, got)

	identity := buildTestIdentity(testPatientAddress)
	require.NoError(t, s.CreateIdentity(ctx, identity))
	assert.NotZero(t, identity.TokenID)

	got, err = s.GetIdentity(ctx, testPatientAddress)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, identity.TokenID, got.TokenID)
	assert.Equal(t, testPatientAddress, got.OwnerAddress)
	assert.Equal(t, uint64(0), got.TotalRecordCount)
	assert.WithinDuration(t, identity.RegisteredAt, got.RegisteredAt, time.Millisecond)
}

func testIdentityOwnerUnique(t *testing.T, s Store) {
	ctx := context.Background()

	require.NoError(t, s.CreateIdentity(ctx, buildTestIdentity(testPatientAddress)))

	// The owner column carries a unique index, so a second insert must fail
	err := s.CreateIdentity(ctx, buildTestIdentity(testPatientAddress))
	assert.Error(t, err)
}

// =============================================================================
// Institution Tests
// =============================================================================

func testInstitutionUpsert(t *testing.T, s Store) {
	ctx := context.Background()

	got, err := s.GetInstitution(ctx, testInstitutionAddress)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.UpsertInstitution(ctx, buildTestInstitution(testInstitutionAddress, "General Hospital", true)))

	got, err = s.GetInstitution(ctx, testInstitutionAddress)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Authorized)
	assert.Equal(t, "General Hospital", got.DisplayName)

	// Revocation overwrites the flag but the row stays as an audit fact
	require.NoError(t, s.UpsertInstitution(ctx, buildTestInstitution(testInstitutionAddress, "General Hospital", false)))

	got, err = s.GetInstitution(ctx, testInstitutionAddress)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.Authorized)
}

// =============================================================================
// Permission Tests
// =============================================================================

func testPermissionUpsertLastWriterWins(t *testing.T, s Store) {
	ctx := context.Background()

	got, err := s.GetPermission(ctx, testPatientAddress, testInstitutionAddress)
	require.NoError(t, err)
	assert.Nil(t, got)

	expiry := time.Now().UTC().Add(time.Hour).Truncate(time.Microsecond)
	require.NoError(t, s.UpsertPermission(ctx, buildTestPermission(testPatientAddress, testInstitutionAddress, domain.AccessClassReadOnly, &expiry)))

	got, err = s.GetPermission(ctx, testPatientAddress, testInstitutionAddress)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Granted)
	assert.Equal(t, string(domain.AccessClassReadOnly), got.AccessClass)
	require.NotNil(t, got.ExpiresAt)
	assert.WithinDuration(t, expiry, *got.ExpiresAt, time.Millisecond)

	// A second grant for the same pair overwrites every mutable column,
	// including clearing the expiry
	require.NoError(t, s.UpsertPermission(ctx, buildTestPermission(testPatientAddress, testInstitutionAddress, domain.AccessClassFullAccess, nil)))

	got, err = s.GetPermission(ctx, testPatientAddress, testInstitutionAddress)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Granted)
	assert.Equal(t, string(domain.AccessClassFullAccess), got.AccessClass)
	assert.Nil(t, got.ExpiresAt)

	// Pairs are independent
	other, err := s.GetPermission(ctx, testPatientAddress, testOtherInstitution)
	require.NoError(t, err)
	assert.Nil(t, other)
}

// =============================================================================
// Access Request Tests
// =============================================================================

func testAccessRequestAppend(t *testing.T, s Store) {
	ctx := context.Background()

	pending, err := s.HasPendingRequest(ctx, testPatientAddress, testInstitutionAddress)
	require.NoError(t, err)
	assert.False(t, pending)

	first := buildTestAccessRequest(testPatientAddress, testInstitutionAddress, 3600)
	idx, err := s.AppendAccessRequest(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), idx)

	second := buildTestAccessRequest(testPatientAddress, testOtherInstitution, 7200)
	idx, err = s.AppendAccessRequest(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), idx)

	pending, err = s.HasPendingRequest(ctx, testPatientAddress, testInstitutionAddress)
	require.NoError(t, err)
	assert.True(t, pending)

	got, err := s.GetAccessRequest(ctx, testPatientAddress, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, testOtherInstitution, got.InstitutionAddress)
	assert.Equal(t, uint64(7200), got.DurationSeconds)

	// Index past the end of the list yields nil
	got, err = s.GetAccessRequest(ctx, testPatientAddress, 2)
	require.NoError(t, err)
	assert.Nil(t, got)

	list, err := s.ListAccessRequests(ctx, testPatientAddress)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, uint64(0), list[0].RequestIndex)
	assert.Equal(t, uint64(1), list[1].RequestIndex)
}

func testResolveAccessRequestApproval(t *testing.T, s Store) {
	ctx := context.Background()

	request := buildTestAccessRequest(testPatientAddress, testInstitutionAddress, 3600)
	_, err := s.AppendAccessRequest(ctx, request)
	require.NoError(t, err)

	expiry := request.RequestedAt.Add(time.Hour)
	permission := buildTestPermission(testPatientAddress, testInstitutionAddress, domain.AccessClassReadOnly, &expiry)
	require.NoError(t, s.ResolveAccessRequest(ctx, testPatientAddress, 0, string(domain.RequestStatusApproved), permission))

	got, err := s.GetAccessRequest(ctx, testPatientAddress, 0)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, string(domain.RequestStatusApproved), got.Status)

	perm, err := s.GetPermission(ctx, testPatientAddress, testInstitutionAddress)
	require.NoError(t, err)
	require.NotNil(t, perm)
	assert.True(t, perm.Granted)
	require.NotNil(t, perm.ExpiresAt)
	assert.WithinDuration(t, expiry, *perm.ExpiresAt, time.Millisecond)
}

func testResolveAccessRequestPendingGuard(t *testing.T, s Store) {
	ctx := context.Background()

	request := buildTestAccessRequest(testPatientAddress, testInstitutionAddress, 3600)
	_, err := s.AppendAccessRequest(ctx, request)
	require.NoError(t, err)

	require.NoError(t, s.ResolveAccessRequest(ctx, testPatientAddress, 0, string(domain.RequestStatusRejected), nil))

	// Rejection leaves no permission behind
	perm, err := s.GetPermission(ctx, testPatientAddress, testInstitutionAddress)
	require.NoError(t, err)
	assert.Nil(t, perm)

	// A resolved request cannot be resolved again
	err = s.ResolveAccessRequest(ctx, testPatientAddress, 0, string(domain.RequestStatusApproved), nil)
	assert.ErrorIs(t, err, domain.ErrRequestNotPending)

	// Nor can a request that never existed
	err = s.ResolveAccessRequest(ctx, testPatientAddress, 7, string(domain.RequestStatusApproved), nil)
	assert.ErrorIs(t, err, domain.ErrRequestNotPending)
}

// =============================================================================
// Record Reference Tests
// =============================================================================

func testAppendRecordReference(t *testing.T, s Store) {
	ctx := context.Background()

	// Appending for an owner with no identity must leave no record behind
	_, err := s.AppendRecordReference(ctx, buildTestRecordReference(testPatientAddress, testInstitutionAddress))
	assert.ErrorIs(t, err, domain.ErrNotRegistered)

	records, err := s.ListRecordReferences(ctx, testPatientAddress)
	require.NoError(t, err)
	assert.Empty(t, records)

	require.NoError(t, s.CreateIdentity(ctx, buildTestIdentity(testPatientAddress)))

	idx, err := s.AppendRecordReference(ctx, buildTestRecordReference(testPatientAddress, testInstitutionAddress))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), idx)

	idx, err = s.AppendRecordReference(ctx, buildTestRecordReference(testPatientAddress, testOtherInstitution))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), idx)

	// The identity record count moves in the same transaction as the append
	identity, err := s.GetIdentity(ctx, testPatientAddress)
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, uint64(2), identity.TotalRecordCount)

	got, err := s.GetRecordReference(ctx, testPatientAddress, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, testOtherInstitution, got.AuthorAddress)
	assert.False(t, got.Verified)

	got, err = s.GetRecordReference(ctx, testPatientAddress, 2)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func testMarkRecordVerified(t *testing.T, s Store) {
	ctx := context.Background()

	require.NoError(t, s.CreateIdentity(ctx, buildTestIdentity(testPatientAddress)))
	_, err := s.AppendRecordReference(ctx, buildTestRecordReference(testPatientAddress, testInstitutionAddress))
	require.NoError(t, err)

	require.NoError(t, s.MarkRecordVerified(ctx, testPatientAddress, 0))

	got, err := s.GetRecordReference(ctx, testPatientAddress, 0)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Verified)

	// Verifying an already-verified record is a no-op
	require.NoError(t, s.MarkRecordVerified(ctx, testPatientAddress, 0))

	err = s.MarkRecordVerified(ctx, testPatientAddress, 5)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

// =============================================================================
// Signer Nonce Tests
// =============================================================================

func testSignerNonce(t *testing.T, s Store) {
	ctx := context.Background()

	// A signer never seen starts at nonce 0
	nonce, err := s.GetNonce(ctx, testSignerAddress)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), nonce)

	// First use with any nonce other than 0 is a replay-protection failure
	err = s.ConsumeNonce(ctx, testSignerAddress, 3)
	assert.ErrorIs(t, err, domain.ErrNonceMismatch)

	require.NoError(t, s.ConsumeNonce(ctx, testSignerAddress, 0))

	nonce, err = s.GetNonce(ctx, testSignerAddress)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), nonce)

	// Reusing the consumed nonce is rejected
	err = s.ConsumeNonce(ctx, testSignerAddress, 0)
	assert.ErrorIs(t, err, domain.ErrNonceMismatch)

	require.NoError(t, s.ConsumeNonce(ctx, testSignerAddress, 1))

	nonce, err = s.GetNonce(ctx, testSignerAddress)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), nonce)

	// Counters are per signer
	nonce, err = s.GetNonce(ctx, testPatientAddress)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), nonce)
}

// =============================================================================
// Test Suite Runner
// =============================================================================

// RunStoreTests runs all store tests against a store implementation. initDB is
// called before each test; cleanup is expected to be registered via t.Cleanup.
func RunStoreTests(t *testing.T, initDB func(t *testing.T) Store) {
	tests := []struct {
		name string
		fn   func(*testing.T, Store)
	}{
		{"IdentityCreateAndGet", testIdentityCreateAndGet},
		{"IdentityOwnerUnique", testIdentityOwnerUnique},
		{"InstitutionUpsert", testInstitutionUpsert},
		{"PermissionUpsertLastWriterWins", testPermissionUpsertLastWriterWins},
		{"AccessRequestAppend", testAccessRequestAppend},
		{"ResolveAccessRequestApproval", testResolveAccessRequestApproval},
		{"ResolveAccessRequestPendingGuard", testResolveAccessRequestPendingGuard},
		{"AppendRecordReference", testAppendRecordReference},
		{"MarkRecordVerified", testMarkRecordVerified},
		{"SignerNonce", testSignerNonce},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, initDB(t))
		})
	}
}
