package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"underwriting-lab/internal/domain"
	"underwriting-lab/internal/storage"
)

// ReportStore implements storage.ReportStore using SQLite. JSON columns are TEXT.
type ReportStore struct {
	db *DB
}

// NewReportStore creates a new ReportStore.
func NewReportStore(db *DB) *ReportStore {
	return &ReportStore{db: db}
}

// Compile-time interface check.
var _ storage.ReportStore = (*ReportStore)(nil)

const reportColumns = `id, tenant_id, address, inputs, outputs, payload, created_at`

// Insert adds a new report. Returns ErrDuplicateKey if id exists.
func (s *ReportStore) Insert(ctx context.Context, r *domain.Report) error {
	if r == nil || r.ID == "" || r.TenantID == "" {
		return storage.ErrInvalidInput
	}

	inputs, err := json.Marshal(r.Inputs)
	if err != nil {
		return fmt.Errorf("marshal report inputs: %w", err)
	}
	outputs, err := json.Marshal(r.Outputs)
	if err != nil {
		return fmt.Errorf("marshal report outputs: %w", err)
	}
	payload, err := json.Marshal(r.Payload)
	if err != nil {
		return fmt.Errorf("marshal report payload: %w", err)
	}

	_, err = s.db.exec(ctx, `
		INSERT INTO reports (`+reportColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.TenantID, r.Address, string(inputs), string(outputs), string(payload), r.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// GetByID retrieves a tenant's report. Returns ErrNotFound if not exists.
func (s *ReportStore) GetByID(ctx context.Context, tenantID, id string) (*domain.Report, error) {
	r, err := scanReport(s.db.QueryRowContext(ctx, `
		SELECT `+reportColumns+` FROM reports
		WHERE tenant_id = ? AND id = ?
	`, tenantID, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get report by id: %w", err)
	}
	return r, nil
}

// ListByTenant retrieves up to limit reports, newest first.
func (s *ReportStore) ListByTenant(ctx context.Context, tenantID string, limit int) ([]*domain.Report, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+reportColumns+` FROM reports
		WHERE tenant_id = ?
		ORDER BY created_at DESC, id ASC
		LIMIT ?
	`, tenantID, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var reports []*domain.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate report rows: %w", err)
	}
	return reports, nil
}

func scanReport(row rowScanner) (*domain.Report, error) {
	var r domain.Report
	var inputs, outputs, payload string

	if err := row.Scan(&r.ID, &r.TenantID, &r.Address, &inputs, &outputs, &payload, &r.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(inputs), &r.Inputs); err != nil {
		return nil, fmt.Errorf("decode inputs of %s: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(outputs), &r.Outputs); err != nil {
		return nil, fmt.Errorf("decode outputs of %s: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(payload), &r.Payload); err != nil {
		return nil, fmt.Errorf("decode payload of %s: %w", r.ID, err)
	}
	return &r, nil
}
