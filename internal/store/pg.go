package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/anantaryaaa/health-record-dapps-sub000/internal/domain"
	"github.com/anantaryaaa/health-record-dapps-sub000/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// Migrate creates or updates the ledger tables
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&schema.Identity{},
		&schema.Institution{},
		&schema.Permission{},
		&schema.AccessRequest{},
		&schema.RecordReference{},
		&schema.SignerNonce{},
	)
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection. Zero values fall back to defaults.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// GetIdentity retrieves the identity bound to an owner address
func (s *pgStore) GetIdentity(ctx context.Context, ownerAddress string) (*schema.Identity, error) {
	var identity schema.Identity
	err := s.db.WithContext(ctx).Where("owner_address = ?", ownerAddress).First(&identity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get identity: %w", err)
	}
	return &identity, nil
}

// CreateIdentity inserts a new identity
func (s *pgStore) CreateIdentity(ctx context.Context, identity *schema.Identity) error {
	if err := s.db.WithContext(ctx).Create(identity).Error; err != nil {
		return fmt.Errorf("failed to create identity: %w", err)
	}
	return nil
}

// GetInstitution retrieves an institution row
func (s *pgStore) GetInstitution(ctx context.Context, address string) (*schema.Institution, error) {
	var institution schema.Institution
	err := s.db.WithContext(ctx).Where("address = ?", address).First(&institution).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get institution: %w", err)
	}
	return &institution, nil
}

// UpsertInstitution creates or updates an institution's whitelist state
func (s *pgStore) UpsertInstitution(ctx context.Context, institution *schema.Institution) error {
	institution.UpdatedAt = time.Now()
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "authorized", "updated_at"}),
	}).Create(institution).Error
	if err != nil {
		return fmt.Errorf("failed to upsert institution: %w", err)
	}
	return nil
}

// GetPermission retrieves the permission for a (patient, accessor) pair
func (s *pgStore) GetPermission(ctx context.Context, patientAddress, accessorAddress string) (*schema.Permission, error) {
	var permission schema.Permission
	err := s.db.WithContext(ctx).
		Where("patient_address = ? AND accessor_address = ?", patientAddress, accessorAddress).
		First(&permission).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get permission: %w", err)
	}
	return &permission, nil
}

// UpsertPermission writes the permission for a pair (last-writer-wins)
func (s *pgStore) UpsertPermission(ctx context.Context, permission *schema.Permission) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "patient_address"}, {Name: "accessor_address"}},
		DoUpdates: clause.AssignmentColumns([]string{"granted", "access_class", "granted_at", "expires_at"}),
	}).Create(permission).Error
	if err != nil {
		return fmt.Errorf("failed to upsert permission: %w", err)
	}
	return nil
}

// HasPendingRequest reports whether an unresolved request exists for the pair
func (s *pgStore) HasPendingRequest(ctx context.Context, patientAddress, institutionAddress string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&schema.AccessRequest{}).
		Where("patient_address = ? AND institution_address = ? AND status = ?",
			patientAddress, institutionAddress, string(domain.RequestStatusPending)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to count pending requests: %w", err)
	}
	return count > 0, nil
}

// AppendAccessRequest appends a request to the patient's ordered list
func (s *pgStore) AppendAccessRequest(ctx context.Context, request *schema.AccessRequest) (uint64, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&schema.AccessRequest{}).
			Where("patient_address = ?", request.PatientAddress).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count requests: %w", err)
		}

		request.RequestIndex = uint64(count)
		if err := tx.Create(request).Error; err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return request.RequestIndex, nil
}

// GetAccessRequest retrieves a request by patient and index
func (s *pgStore) GetAccessRequest(ctx context.Context, patientAddress string, requestIndex uint64) (*schema.AccessRequest, error) {
	var request schema.AccessRequest
	err := s.db.WithContext(ctx).
		Where("patient_address = ? AND request_index = ?", patientAddress, requestIndex).
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get access request: %w", err)
	}
	return &request, nil
}

// ListAccessRequests lists a patient's requests ordered by index
func (s *pgStore) ListAccessRequests(ctx context.Context, patientAddress string) ([]schema.AccessRequest, error) {
	var requests []schema.AccessRequest
	err := s.db.WithContext(ctx).
		Where("patient_address = ?", patientAddress).
		Order("request_index ASC").
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list access requests: %w", err)
	}
	return requests, nil
}

// ResolveAccessRequest moves a pending request to a terminal status and writes
// the approval permission in the same transaction. The status update and the
// permission write are not observable separately.
func (s *pgStore) ResolveAccessRequest(ctx context.Context, patientAddress string, requestIndex uint64, status string, permission *schema.Permission) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&schema.AccessRequest{}).
			Where("patient_address = ? AND request_index = ? AND status = ?",
				patientAddress, requestIndex, string(domain.RequestStatusPending)).
			Update("status", status)
		if result.Error != nil {
			return fmt.Errorf("failed to update request status: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.ErrRequestNotPending
		}

		if permission != nil {
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "patient_address"}, {Name: "accessor_address"}},
				DoUpdates: clause.AssignmentColumns([]string{"granted", "access_class", "granted_at", "expires_at"}),
			}).Create(permission).Error
			if err != nil {
				return fmt.Errorf("failed to upsert permission: %w", err)
			}
		}
		return nil
	})
}

// AppendRecordReference appends a record reference and increments the
// patient's identity record count atomically
func (s *pgStore) AppendRecordReference(ctx context.Context, record *schema.RecordReference) (uint64, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&schema.RecordReference{}).
			Where("patient_address = ?", record.PatientAddress).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count records: %w", err)
		}

		record.RecordIndex = uint64(count)
		if err := tx.Create(record).Error; err != nil {
			return fmt.Errorf("failed to create record reference: %w", err)
		}

		result := tx.Model(&schema.Identity{}).
			Where("owner_address = ?", record.PatientAddress).
			Update("total_record_count", gorm.Expr("total_record_count + 1"))
		if result.Error != nil {
			return fmt.Errorf("failed to increment record count: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.ErrNotRegistered
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return record.RecordIndex, nil
}

// ListRecordReferences lists a patient's record references ordered by index
func (s *pgStore) ListRecordReferences(ctx context.Context, patientAddress string) ([]schema.RecordReference, error) {
	var records []schema.RecordReference
	err := s.db.WithContext(ctx).
		Where("patient_address = ?", patientAddress).
		Order("record_index ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list record references: %w", err)
	}
	return records, nil
}

// GetRecordReference retrieves a record reference by patient and index
func (s *pgStore) GetRecordReference(ctx context.Context, patientAddress string, recordIndex uint64) (*schema.RecordReference, error) {
	var record schema.RecordReference
	err := s.db.WithContext(ctx).
		Where("patient_address = ? AND record_index = ?", patientAddress, recordIndex).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get record reference: %w", err)
	}
	return &record, nil
}

// MarkRecordVerified flips a record's verified flag to true
func (s *pgStore) MarkRecordVerified(ctx context.Context, patientAddress string, recordIndex uint64) error {
	result := s.db.WithContext(ctx).Model(&schema.RecordReference{}).
		Where("patient_address = ? AND record_index = ?", patientAddress, recordIndex).
		Update("verified", true)
	if result.Error != nil {
		return fmt.Errorf("failed to mark record verified: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

// GetNonce retrieves the next expected nonce for a signer
func (s *pgStore) GetNonce(ctx context.Context, signerAddress string) (uint64, error) {
	var row schema.SignerNonce
	err := s.db.WithContext(ctx).Where("signer_address = ?", signerAddress).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get nonce: %w", err)
	}
	return row.Nonce, nil
}

// ConsumeNonce atomically compares and increments a signer's nonce. The row is
// locked for the duration of the transaction so two concurrent submissions
// cannot both be admitted on a stale read.
func (s *pgStore) ConsumeNonce(ctx context.Context, signerAddress string, expected uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row schema.SignerNonce
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("signer_address = ?", signerAddress).
			First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if expected != 0 {
				return domain.ErrNonceMismatch
			}
			row = schema.SignerNonce{SignerAddress: signerAddress, Nonce: 1}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("failed to create nonce row: %w", err)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to lock nonce row: %w", err)
		}

		if row.Nonce != expected {
			return domain.ErrNonceMismatch
		}

		result := tx.Model(&schema.SignerNonce{}).
			Where("signer_address = ?", signerAddress).
			Update("nonce", row.Nonce+1)
		if result.Error != nil {
			return fmt.Errorf("failed to increment nonce: %w", result.Error)
		}
		return nil
	})
}
