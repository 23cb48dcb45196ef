package sqlite

import (
	"context"
	"fmt"

	"underwriting-lab/internal/domain"
	"underwriting-lab/internal/storage"
)

// OutcomeStore implements storage.OutcomeStore using SQLite.
type OutcomeStore struct {
	db *DB
}

// NewOutcomeStore creates a new OutcomeStore.
func NewOutcomeStore(db *DB) *OutcomeStore {
	return &OutcomeStore{db: db}
}

// Compile-time interface check.
var _ storage.OutcomeStore = (*OutcomeStore)(nil)

const outcomeColumns = `
	id, tenant_id, report_id, address, url,
	purchase_price, monthly_rent, vacancy_days, repairs_cost, resale_price, hold_months,
	notes, irr_realized, appreciation_pct, created_at
`

// Insert adds a new outcome. Returns ErrDuplicateKey if id exists.
func (s *OutcomeStore) Insert(ctx context.Context, o *domain.Outcome) error {
	if o == nil || o.ID == "" || o.TenantID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.db.exec(ctx, `
		INSERT INTO outcomes (`+outcomeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		o.ID, o.TenantID, o.ReportID, o.Address, o.URL,
		o.PurchasePrice, o.MonthlyRent, o.VacancyDays, o.RepairsCost, o.ResalePrice, o.HoldMonths,
		o.Notes, o.IRRRealized, o.AppreciationPct, o.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

// GetByID retrieves a tenant's outcome. Returns ErrNotFound if not exists.
func (s *OutcomeStore) GetByID(ctx context.Context, tenantID, id string) (*domain.Outcome, error) {
	o, err := scanOutcome(s.db.QueryRowContext(ctx, `
		SELECT `+outcomeColumns+` FROM outcomes
		WHERE tenant_id = ? AND id = ?
	`, tenantID, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get outcome by id: %w", err)
	}
	return o, nil
}

// ListByTenant retrieves up to limit outcomes, newest first.
func (s *OutcomeStore) ListByTenant(ctx context.Context, tenantID string, limit int) ([]*domain.Outcome, error) {
	return s.list(ctx, `
		SELECT `+outcomeColumns+` FROM outcomes
		WHERE tenant_id = ?
		ORDER BY created_at DESC, id ASC
		LIMIT ?
	`, tenantID, limit)
}

// ListUnlinked retrieves up to limit outcomes without a report, newest first.
func (s *OutcomeStore) ListUnlinked(ctx context.Context, tenantID string, limit int) ([]*domain.Outcome, error) {
	return s.list(ctx, `
		SELECT `+outcomeColumns+` FROM outcomes
		WHERE tenant_id = ? AND (report_id IS NULL OR report_id = '')
		ORDER BY created_at DESC, id ASC
		LIMIT ?
	`, tenantID, limit)
}

// Link ties an outcome to a report.
func (s *OutcomeStore) Link(ctx context.Context, tenantID, outcomeID, reportID string) error {
	if reportID == "" {
		return storage.ErrInvalidInput
	}

	res, err := s.db.exec(ctx, `
		UPDATE outcomes SET report_id = ? WHERE tenant_id = ? AND id = ?
	`, reportID, tenantID, outcomeID)
	if err != nil {
		return fmt.Errorf("link outcome: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("link outcome: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// CountLinked returns the number of outcomes tied to a report.
func (s *OutcomeStore) CountLinked(ctx context.Context, tenantID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM outcomes
		WHERE tenant_id = ? AND report_id IS NOT NULL AND report_id <> ''
	`, tenantID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count linked outcomes: %w", err)
	}
	return n, nil
}

func (s *OutcomeStore) list(ctx context.Context, query, tenantID string, limit int) ([]*domain.Outcome, error) {
	rows, err := s.db.QueryContext(ctx, query, tenantID, sqlLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []*domain.Outcome
	for rows.Next() {
		o, err := scanOutcome(rows)
		if err != nil {
			return nil, fmt.Errorf("scan outcome row: %w", err)
		}
		outcomes = append(outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcome rows: %w", err)
	}
	return outcomes, nil
}

func scanOutcome(row rowScanner) (*domain.Outcome, error) {
	var o domain.Outcome
	err := row.Scan(
		&o.ID, &o.TenantID, &o.ReportID, &o.Address, &o.URL,
		&o.PurchasePrice, &o.MonthlyRent, &o.VacancyDays, &o.RepairsCost, &o.ResalePrice, &o.HoldMonths,
		&o.Notes, &o.IRRRealized, &o.AppreciationPct, &o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
