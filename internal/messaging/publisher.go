package messaging

import (
	"context"

	"github.com/anantaryaaa/health-record-dapps-sub000/internal/domain"
)

// Publisher defines the interface for publishing ledger audit events to a
// message broker. Publishing is best-effort: a failed publish never fails the
// mutation that produced the event.
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// PublishEvent publishes a ledger event
	PublishEvent(ctx context.Context, event *domain.LedgerEvent) error
	// Close closes the connection
	Close()
}
