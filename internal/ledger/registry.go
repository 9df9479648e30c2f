package ledger

import (
	"context"
	"fmt"

	"github.com/anantaryaaa/health-record-dapps-sub000/internal/domain"
	"github.com/anantaryaaa/health-record-dapps-sub000/internal/store/schema"
)

// Register creates an identity for ownerAddress. The caller may be the owner
// itself (self-service) or an authorized institution registering on the
// owner's behalf (assisted onboarding); anyone else is rejected before any
// state is touched. Identities are bound at creation: there is no operation
// anywhere that reassigns the owner.
func (l *Ledger) Register(ctx context.Context, caller, ownerAddress string) (*domain.Identity, error) {
	caller = domain.NormalizeAddress(caller)
	ownerAddress = domain.NormalizeAddress(ownerAddress)

	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != ownerAddress {
		authorized, err := l.isAuthorizedInstitution(ctx, caller)
		if err != nil {
			return nil, err
		}
		if !authorized {
			return nil, domain.ErrNotAuthorized
		}
	}

	existing, err := l.store.GetIdentity(ctx, ownerAddress)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrAlreadyRegistered
	}

	identity := &schema.Identity{
		OwnerAddress: ownerAddress,
		RegisteredAt: l.clock.Now(),
	}
	if err := l.store.CreateIdentity(ctx, identity); err != nil {
		return nil, fmt.Errorf("failed to register identity: %w", err)
	}

	l.emit(ctx, domain.EventKindIdentityRegistered, ownerAddress, "")

	return mapIdentity(identity), nil
}

// AuthorizeInstitution whitelists an institution address. Administrator-only.
// Re-authorizing an already-authorized institution is a no-op success.
func (l *Ledger) AuthorizeInstitution(ctx context.Context, caller, institutionAddress, displayName string) error {
	caller = domain.NormalizeAddress(caller)
	institutionAddress = domain.NormalizeAddress(institutionAddress)

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.isAdmin(caller) {
		return domain.ErrNotAuthorized
	}

	institution := &schema.Institution{
		Address:     institutionAddress,
		DisplayName: displayName,
		Authorized:  true,
	}
	if err := l.store.UpsertInstitution(ctx, institution); err != nil {
		return fmt.Errorf("failed to authorize institution: %w", err)
	}

	l.emit(ctx, domain.EventKindInstitutionAuthorized, "", institutionAddress)
	return nil
}

// RevokeInstitutionAuthorization removes an institution from the whitelist.
// Administrator-only; idempotent when the institution was never authorized.
func (l *Ledger) RevokeInstitutionAuthorization(ctx context.Context, caller, institutionAddress string) error {
	caller = domain.NormalizeAddress(caller)
	institutionAddress = domain.NormalizeAddress(institutionAddress)

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.isAdmin(caller) {
		return domain.ErrNotAuthorized
	}

	institution, err := l.store.GetInstitution(ctx, institutionAddress)
	if err != nil {
		return err
	}
	if institution == nil || !institution.Authorized {
		return nil
	}

	institution.Authorized = false
	if err := l.store.UpsertInstitution(ctx, institution); err != nil {
		return fmt.Errorf("failed to revoke institution authorization: %w", err)
	}

	l.emit(ctx, domain.EventKindInstitutionRevoked, "", institutionAddress)
	return nil
}

// IsRegistered reports whether an address has an identity. Public fact, no
// access logging.
func (l *Ledger) IsRegistered(ctx context.Context, address string) (bool, error) {
	identity, err := l.store.GetIdentity(ctx, domain.NormalizeAddress(address))
	if err != nil {
		return false, err
	}
	return identity != nil, nil
}

// IsAuthorizedInstitution reports whether an address is currently whitelisted
func (l *Ledger) IsAuthorizedInstitution(ctx context.Context, address string) (bool, error) {
	return l.isAuthorizedInstitution(ctx, domain.NormalizeAddress(address))
}

// GetIdentity retrieves an identity, nil if the address is not registered
func (l *Ledger) GetIdentity(ctx context.Context, address string) (*domain.Identity, error) {
	identity, err := l.store.GetIdentity(ctx, domain.NormalizeAddress(address))
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, nil
	}
	return mapIdentity(identity), nil
}

// GetInstitution retrieves an institution, nil if never whitelisted
func (l *Ledger) GetInstitution(ctx context.Context, address string) (*domain.Institution, error) {
	institution, err := l.store.GetInstitution(ctx, domain.NormalizeAddress(address))
	if err != nil {
		return nil, err
	}
	if institution == nil {
		return nil, nil
	}
	return &domain.Institution{
		Address:     institution.Address,
		DisplayName: institution.DisplayName,
		Authorized:  institution.Authorized,
	}, nil
}

func mapIdentity(identity *schema.Identity) *domain.Identity {
	return &domain.Identity{
		OwnerAddress:     identity.OwnerAddress,
		TokenID:          identity.TokenID,
		RegisteredAt:     identity.RegisteredAt,
		TotalRecordCount: identity.TotalRecordCount,
	}
}
