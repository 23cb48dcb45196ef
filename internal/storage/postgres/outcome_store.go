package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"underwriting-lab/internal/domain"
	"underwriting-lab/internal/storage"
)

// OutcomeStore implements storage.OutcomeStore using PostgreSQL.
type OutcomeStore struct {
	pool *Pool
}

// NewOutcomeStore creates a new OutcomeStore.
func NewOutcomeStore(pool *Pool) *OutcomeStore {
	return &OutcomeStore{pool: pool}
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

	query := `
		INSERT INTO outcomes (` + outcomeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := s.pool.Exec(ctx, query,
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
	query := `
		SELECT ` + outcomeColumns + `
		FROM outcomes
		WHERE tenant_id = $1 AND id = $2
	`

	o, err := scanOutcome(s.pool.QueryRow(ctx, query, tenantID, id))
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
	query := `
		SELECT ` + outcomeColumns + `
		FROM outcomes
		WHERE tenant_id = $1
		ORDER BY created_at DESC, id ASC
		LIMIT $2
	`
	return s.list(ctx, query, tenantID, limit)
}

// ListUnlinked retrieves up to limit outcomes without a report, newest first.
func (s *OutcomeStore) ListUnlinked(ctx context.Context, tenantID string, limit int) ([]*domain.Outcome, error) {
	query := `
		SELECT ` + outcomeColumns + `
		FROM outcomes
		WHERE tenant_id = $1 AND (report_id IS NULL OR report_id = '')
		ORDER BY created_at DESC, id ASC
		LIMIT $2
	`
	return s.list(ctx, query, tenantID, limit)
}

// Link ties an outcome to a report.
func (s *OutcomeStore) Link(ctx context.Context, tenantID, outcomeID, reportID string) error {
	if reportID == "" {
		return storage.ErrInvalidInput
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE outcomes SET report_id = $3
		WHERE tenant_id = $1 AND id = $2
	`, tenantID, outcomeID, reportID)
	if err != nil {
		return fmt.Errorf("link outcome: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// CountLinked returns the number of outcomes tied to a report.
func (s *OutcomeStore) CountLinked(ctx context.Context, tenantID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM outcomes
		WHERE tenant_id = $1 AND report_id IS NOT NULL AND report_id <> ''
	`, tenantID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count linked outcomes: %w", err)
	}
	return n, nil
}

func (s *OutcomeStore) list(ctx context.Context, query, tenantID string, limit int) ([]*domain.Outcome, error) {
	rows, err := s.pool.Query(ctx, query, tenantID, sqlLimit(limit))
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

// scanOutcome scans a single row into an Outcome.
func scanOutcome(row pgx.Row) (*domain.Outcome, error) {
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

// sqlLimit maps limit <= 0 ("all") to a NULL LIMIT.
func sqlLimit(limit int) *int {
	if limit <= 0 {
		return nil
	}
	return &limit
}
