package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/anantaryaaa/health-record-dapps-sub000/internal/domain"
	"github.com/anantaryaaa/health-record-dapps-sub000/internal/store/schema"
)

// GrantAccess writes the permission for (caller, accessor) unconditionally,
// overwriting any previous grant (last-writer-wins, no merge of classes or
// durations). The accessor must be an authorized institution at call time.
// expiresAt nil means the grant never expires.
func (l *Ledger) GrantAccess(ctx context.Context, caller, accessorAddress string, accessClass domain.AccessClass, expiresAt *time.Time) error {
	caller = domain.NormalizeAddress(caller)
	accessorAddress = domain.NormalizeAddress(accessorAddress)

	if !domain.IsValidAccessClass(accessClass) {
		return fmt.Errorf("invalid access class: %s", accessClass)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	identity, err := l.store.GetIdentity(ctx, caller)
	if err != nil {
		return err
	}
	if identity == nil {
		return domain.ErrNotRegistered
	}

	authorized, err := l.isAuthorizedInstitution(ctx, accessorAddress)
	if err != nil {
		return err
	}
	if !authorized {
		return domain.ErrAccessorNotAuthorized
	}

	permission := &schema.Permission{
		PatientAddress:  caller,
		AccessorAddress: accessorAddress,
		Granted:         true,
		AccessClass:     string(accessClass),
		GrantedAt:       l.clock.Now(),
		ExpiresAt:       expiresAt,
	}
	if err := l.store.UpsertPermission(ctx, permission); err != nil {
		return fmt.Errorf("failed to grant access: %w", err)
	}

	l.emit(ctx, domain.EventKindAccessGranted, caller, accessorAddress)
	return nil
}

// RevokeAccess sets the permission's granted flag to false. Idempotent when
// nothing was granted; the row is kept as an audit fact.
func (l *Ledger) RevokeAccess(ctx context.Context, caller, accessorAddress string) error {
	caller = domain.NormalizeAddress(caller)
	accessorAddress = domain.NormalizeAddress(accessorAddress)

	l.mu.Lock()
	defer l.mu.Unlock()

	permission, err := l.store.GetPermission(ctx, caller, accessorAddress)
	if err != nil {
		return err
	}
	if permission == nil || !permission.Granted {
		return nil
	}

	permission.Granted = false
	if err := l.store.UpsertPermission(ctx, permission); err != nil {
		return fmt.Errorf("failed to revoke access: %w", err)
	}

	l.emit(ctx, domain.EventKindAccessRevoked, caller, accessorAddress)
	return nil
}

// RequestAccess appends an institution-initiated request to the patient's
// list. At most one unresolved request per (patient, institution) pair.
func (l *Ledger) RequestAccess(ctx context.Context, caller, patientAddress, displayName string, durationSeconds uint64, message string) (*domain.AccessRequest, error) {
	caller = domain.NormalizeAddress(caller)
	patientAddress = domain.NormalizeAddress(patientAddress)

	l.mu.Lock()
	defer l.mu.Unlock()

	authorized, err := l.isAuthorizedInstitution(ctx, caller)
	if err != nil {
		return nil, err
	}
	if !authorized {
		return nil, domain.ErrAccessorNotAuthorized
	}

	identity, err := l.store.GetIdentity(ctx, patientAddress)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, domain.ErrNotRegistered
	}

	pending, err := l.store.HasPendingRequest(ctx, patientAddress, caller)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, domain.ErrRequestAlreadyPending
	}

	request := &schema.AccessRequest{
		PatientAddress:     patientAddress,
		InstitutionAddress: caller,
		InstitutionName:    displayName,
		RequestedAt:        l.clock.Now(),
		DurationSeconds:    durationSeconds,
		Message:            message,
		Status:             string(domain.RequestStatusPending),
	}
	if _, err := l.store.AppendAccessRequest(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to append access request: %w", err)
	}

	l.emit(ctx, domain.EventKindAccessRequested, patientAddress, caller)
	return mapAccessRequest(request), nil
}

// ApproveAccessRequest resolves a pending request and writes the resulting
// permission in one atomic step; there is no observable state where the
// request shows approved without the permission being live. The institution
// must still be authorized at approval time: a request filed before an admin
// revocation cannot be approved into live access. The permission expires at
// requestedAt + requestedDurationSeconds.
func (l *Ledger) ApproveAccessRequest(ctx context.Context, caller string, requestIndex uint64) error {
	caller = domain.NormalizeAddress(caller)

	l.mu.Lock()
	defer l.mu.Unlock()

	request, err := l.store.GetAccessRequest(ctx, caller, requestIndex)
	if err != nil {
		return err
	}
	if request == nil {
		return domain.ErrInvalidRequestIndex
	}
	if request.Status != string(domain.RequestStatusPending) {
		return domain.ErrRequestNotPending
	}

	authorized, err := l.isAuthorizedInstitution(ctx, request.InstitutionAddress)
	if err != nil {
		return err
	}
	if !authorized {
		return domain.ErrAccessorNotAuthorized
	}

	expiresAt := request.RequestedAt.Add(time.Duration(request.DurationSeconds) * time.Second)
	permission := &schema.Permission{
		PatientAddress:  caller,
		AccessorAddress: request.InstitutionAddress,
		Granted:         true,
		AccessClass:     string(domain.AccessClassFullAccess),
		GrantedAt:       l.clock.Now(),
		ExpiresAt:       &expiresAt,
	}

	err = l.store.ResolveAccessRequest(ctx, caller, requestIndex, string(domain.RequestStatusApproved), permission)
	if err != nil {
		return err
	}

	l.emit(ctx, domain.EventKindRequestApproved, caller, request.InstitutionAddress)
	return nil
}

// RejectAccessRequest resolves a pending request without touching permissions
func (l *Ledger) RejectAccessRequest(ctx context.Context, caller string, requestIndex uint64) error {
	caller = domain.NormalizeAddress(caller)

	l.mu.Lock()
	defer l.mu.Unlock()

	request, err := l.store.GetAccessRequest(ctx, caller, requestIndex)
	if err != nil {
		return err
	}
	if request == nil {
		return domain.ErrInvalidRequestIndex
	}
	if request.Status != string(domain.RequestStatusPending) {
		return domain.ErrRequestNotPending
	}

	err = l.store.ResolveAccessRequest(ctx, caller, requestIndex, string(domain.RequestStatusRejected), nil)
	if err != nil {
		return err
	}

	l.emit(ctx, domain.EventKindRequestRejected, caller, request.InstitutionAddress)
	return nil
}

// CheckAccess applies the lazy-expiry predicate: granted and either no expiry
// or not yet expired. It never mutates state, even when it observes an
// expired-but-still-granted row.
func (l *Ledger) CheckAccess(ctx context.Context, patientAddress, accessorAddress string) (bool, *domain.Permission, error) {
	patientAddress = domain.NormalizeAddress(patientAddress)
	accessorAddress = domain.NormalizeAddress(accessorAddress)

	permission, err := l.store.GetPermission(ctx, patientAddress, accessorAddress)
	if err != nil {
		return false, nil, err
	}
	if permission == nil {
		return false, nil, nil
	}

	mapped := mapPermission(permission)
	return mapped.Live(l.clock.Now()), mapped, nil
}

// ListAccessRequests lists a patient's requests ordered by index
func (l *Ledger) ListAccessRequests(ctx context.Context, patientAddress string) ([]domain.AccessRequest, error) {
	rows, err := l.store.ListAccessRequests(ctx, domain.NormalizeAddress(patientAddress))
	if err != nil {
		return nil, err
	}

	requests := make([]domain.AccessRequest, 0, len(rows))
	for i := range rows {
		requests = append(requests, *mapAccessRequest(&rows[i]))
	}
	return requests, nil
}

func mapPermission(permission *schema.Permission) *domain.Permission {
	return &domain.Permission{
		PatientAddress:  permission.PatientAddress,
		AccessorAddress: permission.AccessorAddress,
		Granted:         permission.Granted,
		AccessClass:     domain.AccessClass(permission.AccessClass),
		GrantedAt:       permission.GrantedAt,
		ExpiresAt:       permission.ExpiresAt,
	}
}

func mapAccessRequest(request *schema.AccessRequest) *domain.AccessRequest {
	return &domain.AccessRequest{
		PatientAddress:     request.PatientAddress,
		RequestIndex:       request.RequestIndex,
		InstitutionAddress: request.InstitutionAddress,
		InstitutionName:    request.InstitutionName,
		RequestedAt:        request.RequestedAt,
		DurationSeconds:    request.DurationSeconds,
		Message:            request.Message,
		Status:             domain.RequestStatus(request.Status),
	}
}
