package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"underwriting-lab/internal/domain"
	"underwriting-lab/internal/storage"
)

// ReportStore implements storage.ReportStore using PostgreSQL.
type ReportStore struct {
	pool *Pool
}

// NewReportStore creates a new ReportStore.
func NewReportStore(pool *Pool) *ReportStore {
	return &ReportStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ReportStore = (*ReportStore)(nil)

const reportColumns = `id, tenant_id, address, inputs, outputs, payload, created_at`

// Insert adds a new report. Returns ErrDuplicateKey if id exists.
func (s *ReportStore) Insert(ctx context.Context, r *domain.Report) error {
	if r == nil || r.ID == "" || r.TenantID == "" {
		return storage.ErrInvalidInput
	}

	inputs, outputs, payload, err := encodeReport(r)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO reports (`+reportColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, r.ID, r.TenantID, r.Address, inputs, outputs, payload, r.CreatedAt)
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
	r, err := scanReport(s.pool.QueryRow(ctx, `
		SELECT `+reportColumns+`
		FROM reports
		WHERE tenant_id = $1 AND id = $2
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
	rows, err := s.pool.Query(ctx, `
		SELECT `+reportColumns+`
		FROM reports
		WHERE tenant_id = $1
		ORDER BY created_at DESC, id ASC
		LIMIT $2
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

func encodeReport(r *domain.Report) (inputs, outputs, payload []byte, err error) {
	if inputs, err = json.Marshal(r.Inputs); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal report inputs: %w", err)
	}
	if outputs, err = json.Marshal(r.Outputs); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal report outputs: %w", err)
	}
	if payload, err = json.Marshal(r.Payload); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal report payload: %w", err)
	}
	return inputs, outputs, payload, nil
}

// scanReport scans a single row into a Report.
func scanReport(row pgx.Row) (*domain.Report, error) {
	var r domain.Report
	var inputs, outputs, payload []byte

	if err := row.Scan(&r.ID, &r.TenantID, &r.Address, &inputs, &outputs, &payload, &r.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(inputs, &r.Inputs); err != nil {
		return nil, fmt.Errorf("decode inputs of %s: %w", r.ID, err)
	}
	if err := json.Unmarshal(outputs, &r.Outputs); err != nil {
		return nil, fmt.Errorf("decode outputs of %s: %w", r.ID, err)
	}
	if err := json.Unmarshal(payload, &r.Payload); err != nil {
		return nil, fmt.Errorf("decode payload of %s: %w", r.ID, err)
	}
	return &r, nil
}
