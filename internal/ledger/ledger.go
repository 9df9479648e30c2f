package ledger

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/anantaryaaa/health-record-dapps-sub000/internal/adapter"
	"github.com/anantaryaaa/health-record-dapps-sub000/internal/domain"
	"github.com/anantaryaaa/health-record-dapps-sub000/internal/logger"
	"github.com/anantaryaaa/health-record-dapps-sub000/internal/messaging"
	"github.com/anantaryaaa/health-record-dapps-sub000/internal/store"
)

// Config holds the ledger role configuration
type Config struct {
	// AdminAddresses may authorize institutions and verify records
	AdminAddresses []string
	// AuditorAddresses may verify records but not manage institutions
	AuditorAddresses []string
}

// Ledger implements the identity registry, the consent ledger and the record
// reference ledger over a single persistent store. Mutations are serialized
// behind one lock so every mutating call completes entirely before the next
// begins; reads go straight to the store and never take the lock.
type Ledger struct {
	store     store.Store
	clock     adapter.Clock
	publisher messaging.Publisher

	admins   map[string]bool
	auditors map[string]bool

	// mu serializes all mutating operations
	mu sync.Mutex
}

// New creates a new ledger. The publisher may be nil when audit events are not
// wired.
func New(cfg Config, st store.Store, clock adapter.Clock, publisher messaging.Publisher) *Ledger {
	admins := make(map[string]bool, len(cfg.AdminAddresses))
	for _, addr := range cfg.AdminAddresses {
		admins[domain.NormalizeAddress(addr)] = true
	}

	auditors := make(map[string]bool, len(cfg.AuditorAddresses))
	for _, addr := range cfg.AuditorAddresses {
		auditors[domain.NormalizeAddress(addr)] = true
	}

	return &Ledger{
		store:     st,
		clock:     clock,
		publisher: publisher,
		admins:    admins,
		auditors:  auditors,
	}
}

// isAdmin reports whether an address holds the administrator role
func (l *Ledger) isAdmin(address string) bool {
	return l.admins[address]
}

// isAuditor reports whether an address may run the record verification step
func (l *Ledger) isAuditor(address string) bool {
	return l.admins[address] || l.auditors[address]
}

// isAuthorizedInstitution checks the whitelist state at call time
func (l *Ledger) isAuthorizedInstitution(ctx context.Context, address string) (bool, error) {
	institution, err := l.store.GetInstitution(ctx, address)
	if err != nil {
		return false, err
	}
	return institution != nil && institution.Authorized, nil
}

// emit publishes an audit event; failures are logged, never propagated
func (l *Ledger) emit(ctx context.Context, kind domain.EventKind, patient, accessor string) {
	if l.publisher == nil {
		return
	}

	event := &domain.LedgerEvent{
		EventID:         ulid.Make().String(),
		Kind:            kind,
		PatientAddress:  patient,
		AccessorAddress: accessor,
		Timestamp:       l.clock.Now(),
	}

	if err := l.publisher.PublishEvent(ctx, event); err != nil {
		logger.WarnCtx(ctx, "Failed to publish ledger event",
			zap.Error(err),
			zap.String("kind", string(kind)),
		)
	}
}
