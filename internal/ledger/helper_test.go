package ledger_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"

	"github.com/anantaryaaa/health-record-dapps-sub000/internal/domain"
	"github.com/anantaryaaa/health-record-dapps-sub000/internal/ledger"
	"github.com/anantaryaaa/health-record-dapps-sub000/internal/logger"
	"github.com/anantaryaaa/health-record-dapps-sub000/internal/mocks"
	"github.com/anantaryaaa/health-record-dapps-sub000/internal/store/schema"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

// fakeStore is an in-memory store.Store for exercising ledger semantics
// without a database. Composite methods mirror the transactional behavior of
// the PostgreSQL implementation.
type fakeStore struct {
	mu           sync.Mutex
	nextTokenID  uint64
	identities   map[string]*schema.Identity
	institutions map[string]*schema.Institution
	permissions  map[string]*schema.Permission
	requests     map[string][]*schema.AccessRequest
	records      map[string][]*schema.RecordReference
	nonces       map[string]uint64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		identities:   make(map[string]*schema.Identity),
		institutions: make(map[string]*schema.Institution),
		permissions:  make(map[string]*schema.Permission),
		requests:     make(map[string][]*schema.AccessRequest),
		records:      make(map[string][]*schema.RecordReference),
		nonces:       make(map[string]uint64),
	}
}

func pairKey(patient, accessor string) string {
	return patient + "|" + accessor
}

func (s *fakeStore) GetIdentity(_ context.Context, ownerAddress string) (*schema.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	identity, ok := s.identities[ownerAddress]
	if !ok {
		return nil, nil
	}
	cp := *identity
	return &cp, nil
}

func (s *fakeStore) CreateIdentity(_ context.Context, identity *schema.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.identities[identity.OwnerAddress]; ok {
		return errors.New("duplicate owner address")
	}
	s.nextTokenID++
	identity.TokenID = s.nextTokenID
	cp := *identity
	s.identities[identity.OwnerAddress] = &cp
	return nil
}

func (s *fakeStore) GetInstitution(_ context.Context, address string) (*schema.Institution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	institution, ok := s.institutions[address]
	if !ok {
		return nil, nil
	}
	cp := *institution
	return &cp, nil
}

func (s *fakeStore) UpsertInstitution(_ context.Context, institution *schema.Institution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *institution
	s.institutions[institution.Address] = &cp
	return nil
}

func (s *fakeStore) GetPermission(_ context.Context, patientAddress, accessorAddress string) (*schema.Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	permission, ok := s.permissions[pairKey(patientAddress, accessorAddress)]
	if !ok {
		return nil, nil
	}
	cp := *permission
	return &cp, nil
}

func (s *fakeStore) UpsertPermission(_ context.Context, permission *schema.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *permission
	s.permissions[pairKey(permission.PatientAddress, permission.AccessorAddress)] = &cp
	return nil
}

func (s *fakeStore) HasPendingRequest(_ context.Context, patientAddress, institutionAddress string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, request := range s.requests[patientAddress] {
		if request.InstitutionAddress == institutionAddress && request.Status == string(domain.RequestStatusPending) {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) AppendAccessRequest(_ context.Context, request *schema.AccessRequest) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	request.RequestIndex = uint64(len(s.requests[request.PatientAddress]))
	cp := *request
	s.requests[request.PatientAddress] = append(s.requests[request.PatientAddress], &cp)
	return request.RequestIndex, nil
}

func (s *fakeStore) GetAccessRequest(_ context.Context, patientAddress string, requestIndex uint64) (*schema.AccessRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	requests := s.requests[patientAddress]
	if requestIndex >= uint64(len(requests)) {
		return nil, nil
	}
	cp := *requests[requestIndex]
	return &cp, nil
}

func (s *fakeStore) ListAccessRequests(_ context.Context, patientAddress string) ([]schema.AccessRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]schema.AccessRequest, 0, len(s.requests[patientAddress]))
	for _, request := range s.requests[patientAddress] {
		out = append(out, *request)
	}
	return out, nil
}

func (s *fakeStore) ResolveAccessRequest(_ context.Context, patientAddress string, requestIndex uint64, status string, permission *schema.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	requests := s.requests[patientAddress]
	if requestIndex >= uint64(len(requests)) {
		return domain.ErrInvalidRequestIndex
	}
	if requests[requestIndex].Status != string(domain.RequestStatusPending) {
		return domain.ErrRequestNotPending
	}
	requests[requestIndex].Status = status
	if permission != nil {
		cp := *permission
		s.permissions[pairKey(permission.PatientAddress, permission.AccessorAddress)] = &cp
	}
	return nil
}

func (s *fakeStore) AppendRecordReference(_ context.Context, record *schema.RecordReference) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	identity, ok := s.identities[record.PatientAddress]
	if !ok {
		return 0, domain.ErrNotRegistered
	}
	record.RecordIndex = uint64(len(s.records[record.PatientAddress]))
	cp := *record
	s.records[record.PatientAddress] = append(s.records[record.PatientAddress], &cp)
	identity.TotalRecordCount++
	return record.RecordIndex, nil
}

func (s *fakeStore) ListRecordReferences(_ context.Context, patientAddress string) ([]schema.RecordReference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]schema.RecordReference, 0, len(s.records[patientAddress]))
	for _, record := range s.records[patientAddress] {
		out = append(out, *record)
	}
	return out, nil
}

func (s *fakeStore) GetRecordReference(_ context.Context, patientAddress string, recordIndex uint64) (*schema.RecordReference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := s.records[patientAddress]
	if recordIndex >= uint64(len(records)) {
		return nil, nil
	}
	cp := *records[recordIndex]
	return &cp, nil
}

func (s *fakeStore) MarkRecordVerified(_ context.Context, patientAddress string, recordIndex uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := s.records[patientAddress]
	if recordIndex >= uint64(len(records)) {
		return domain.ErrRecordNotFound
	}
	records[recordIndex].Verified = true
	return nil
}

func (s *fakeStore) GetNonce(_ context.Context, signerAddress string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nonces[signerAddress], nil
}

func (s *fakeStore) ConsumeNonce(_ context.Context, signerAddress string, expected uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nonces[signerAddress] != expected {
		return domain.ErrNonceMismatch
	}
	s.nonces[signerAddress] = expected + 1
	return nil
}

// testClock wires a MockClock whose Now follows a mutable instant
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// testLedger bundles a ledger wired to the fake store and a pinned clock
type testLedger struct {
	ctrl   *gomock.Controller
	ledger *ledger.Ledger
	store  *fakeStore
	clock  *testClock
}

const (
	adminAddress       = "0x00000000000000000000000000000000000000Ad"
	auditorAddress     = "0x00000000000000000000000000000000000000aE"
	patientAddress     = "0x1111111111111111111111111111111111111111"
	institutionAddress = "0x2222222222222222222222222222222222222222"
	otherInstitution   = "0x3333333333333333333333333333333333333333"
	strangerAddress    = "0x4444444444444444444444444444444444444444"
)

func setupTestLedger(t *testing.T) *testLedger {
	ctrl := gomock.NewController(t)

	clock := &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	mockClock := mocks.NewMockClock(ctrl)
	mockClock.EXPECT().Now().DoAndReturn(clock.Now).AnyTimes()

	st := newFakeStore()
	l := ledger.New(ledger.Config{
		AdminAddresses:   []string{adminAddress},
		AuditorAddresses: []string{auditorAddress},
	}, st, mockClock, nil)

	return &testLedger{
		ctrl:   ctrl,
		ledger: l,
		store:  st,
		clock:  clock,
	}
}

func tearDownTestLedger(tl *testLedger) {
	tl.ctrl.Finish()
}

// registerPatient registers the default patient through the public operation
func registerPatient(t *testing.T, tl *testLedger) {
	t.Helper()
	_, err := tl.ledger.Register(context.Background(), patientAddress, patientAddress)
	if err != nil {
		t.Fatalf("failed to register patient: %v", err)
	}
}

// authorizeInstitution whitelists the default institution as the admin
func authorizeInstitution(t *testing.T, tl *testLedger, address string) {
	t.Helper()
	err := tl.ledger.AuthorizeInstitution(context.Background(), adminAddress, address, "General Hospital")
	if err != nil {
		t.Fatalf("failed to authorize institution: %v", err)
	}
}
