package ledger

import (
	"context"
	"fmt"

	"github.com/anantaryaaa/health-record-dapps-sub000/internal/domain"
	"github.com/anantaryaaa/health-record-dapps-sub000/internal/store/schema"
)

// AddRecord appends a record reference for a patient. The caller must be an
// authorized institution holding a live full-access permission; otherwise the
// call fails with no partial effect. The reference and the identity record
// count move together in one transaction. Only the pointer and hash are
// stored, never record content.
func (l *Ledger) AddRecord(ctx context.Context, caller, patientAddress, contentAddress, integrityHash, classificationCode, recordKind string) (*domain.RecordReference, error) {
	caller = domain.NormalizeAddress(caller)
	patientAddress = domain.NormalizeAddress(patientAddress)

	l.mu.Lock()
	defer l.mu.Unlock()

	authorized, err := l.isAuthorizedInstitution(ctx, caller)
	if err != nil {
		return nil, err
	}
	if !authorized {
		return nil, domain.ErrAccessDenied
	}

	permission, err := l.store.GetPermission(ctx, patientAddress, caller)
	if err != nil {
		return nil, err
	}
	mapped := mapPermission0(permission)
	if !mapped.Live(l.clock.Now()) || mapped.AccessClass != domain.AccessClassFullAccess {
		return nil, domain.ErrAccessDenied
	}

	record := &schema.RecordReference{
		PatientAddress:     patientAddress,
		ContentAddress:     contentAddress,
		IntegrityHash:      integrityHash,
		AuthorAddress:      caller,
		CreatedAt:          l.clock.Now(),
		ClassificationCode: classificationCode,
		RecordKind:         recordKind,
	}
	if _, err := l.store.AppendRecordReference(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to append record reference: %w", err)
	}

	l.emit(ctx, domain.EventKindRecordAdded, patientAddress, caller)
	return mapRecordReference(record), nil
}

// GetRecords lists a patient's record references. The patient may always read
// their own list; an accessor needs a live permission of either class.
func (l *Ledger) GetRecords(ctx context.Context, caller, patientAddress string) ([]domain.RecordReference, error) {
	caller = domain.NormalizeAddress(caller)
	patientAddress = domain.NormalizeAddress(patientAddress)

	if caller != patientAddress {
		permission, err := l.store.GetPermission(ctx, patientAddress, caller)
		if err != nil {
			return nil, err
		}
		if !mapPermission0(permission).Live(l.clock.Now()) {
			return nil, domain.ErrAccessDenied
		}
	}

	rows, err := l.store.ListRecordReferences(ctx, patientAddress)
	if err != nil {
		return nil, err
	}

	records := make([]domain.RecordReference, 0, len(rows))
	for i := range rows {
		records = append(records, *mapRecordReference(&rows[i]))
	}
	return records, nil
}

// MarkVerified flips a record's verified flag. Administrator or auditor only;
// the flag never goes back to false.
func (l *Ledger) MarkVerified(ctx context.Context, caller, patientAddress string, recordIndex uint64) error {
	caller = domain.NormalizeAddress(caller)
	patientAddress = domain.NormalizeAddress(patientAddress)

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.isAdmin(caller) && !l.isAuditor(caller) {
		return domain.ErrNotAuthorized
	}

	if err := l.store.MarkRecordVerified(ctx, patientAddress, recordIndex); err != nil {
		return err
	}

	l.emit(ctx, domain.EventKindRecordVerified, patientAddress, caller)
	return nil
}

// mapPermission0 tolerates a nil row so access checks read naturally
func mapPermission0(permission *schema.Permission) *domain.Permission {
	if permission == nil {
		return nil
	}
	return mapPermission(permission)
}

func mapRecordReference(record *schema.RecordReference) *domain.RecordReference {
	return &domain.RecordReference{
		PatientAddress:     record.PatientAddress,
		RecordIndex:        record.RecordIndex,
		ContentAddress:     record.ContentAddress,
		IntegrityHash:      record.IntegrityHash,
		AuthorAddress:      record.AuthorAddress,
		CreatedAt:          record.CreatedAt,
		ClassificationCode: record.ClassificationCode,
		RecordKind:         record.RecordKind,
		Verified:           record.Verified,
	}
}
