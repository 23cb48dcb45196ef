package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"underwriting-lab/internal/domain"
	"underwriting-lab/internal/storage"
)

// ModelStore implements storage.ModelStore using PostgreSQL.
type ModelStore struct {
	pool *Pool
}

// NewModelStore creates a new ModelStore.
func NewModelStore(pool *Pool) *ModelStore {
	return &ModelStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ModelStore = (*ModelStore)(nil)

const modelColumns = `id, tenant_id, name, status, weights, metrics, notes, created_at, updated_at`

// Insert adds a new candidate model. Returns ErrDuplicateKey if id exists.
func (s *ModelStore) Insert(ctx context.Context, m *domain.ModelRecord) error {
	if m == nil || m.ID == "" || m.TenantID == "" || m.Status != domain.ModelStatusCandidate {
		return storage.ErrInvalidInput
	}

	weights, err := json.Marshal(m.Weights)
	if err != nil {
		return fmt.Errorf("marshal weights: %w", err)
	}
	metrics, err := json.Marshal(m.Metrics)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}

	query := `
		INSERT INTO model_versions (` + modelColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = s.pool.Exec(ctx, query,
		m.ID,
		m.TenantID,
		m.Name,
		string(m.Status),
		weights,
		metrics,
		m.Notes,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert model: %w", err)
	}
	return nil
}

// GetByID retrieves a tenant's model. Returns ErrNotFound if not exists.
func (s *ModelStore) GetByID(ctx context.Context, tenantID, id string) (*domain.ModelRecord, error) {
	query := `
		SELECT ` + modelColumns + `
		FROM model_versions
		WHERE tenant_id = $1 AND id = $2
	`

	m, err := scanModel(s.pool.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get model by id: %w", err)
	}
	return m, nil
}

// ListByTenant retrieves all models of a tenant, newest first.
func (s *ModelStore) ListByTenant(ctx context.Context, tenantID string) ([]*domain.ModelRecord, error) {
	query := `
		SELECT ` + modelColumns + `
		FROM model_versions
		WHERE tenant_id = $1
		ORDER BY created_at DESC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	defer rows.Close()

	var models []*domain.ModelRecord
	for rows.Next() {
		m, err := scanModel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan model row: %w", err)
		}
		models = append(models, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate model rows: %w", err)
	}
	return models, nil
}

// GetActive retrieves the tenant's active model. Returns ErrNotFound if none.
func (s *ModelStore) GetActive(ctx context.Context, tenantID string) (*domain.ModelRecord, error) {
	query := `
		SELECT ` + modelColumns + `
		FROM model_versions
		WHERE tenant_id = $1 AND status = 'active'
	`

	m, err := scanModel(s.pool.QueryRow(ctx, query, tenantID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get active model: %w", err)
	}
	return m, nil
}

// ActivateExclusive archives the current active model and activates id in one transaction.
// The per-tenant advisory lock serializes activations; the partial unique index
// catches anything that slips past it and surfaces as ErrConflict.
func (s *ModelStore) ActivateExclusive(ctx context.Context, tenantID, id string, at int64) (*domain.ModelRecord, error) {
	var prev *domain.ModelRecord

	err := s.pool.withTx(ctx, func(tx pgx.Tx) error {
		if err := lockTenant(ctx, tx, "models", tenantID); err != nil {
			return err
		}

		var status string
		err := tx.QueryRow(ctx, `
			SELECT status FROM model_versions
			WHERE tenant_id = $1 AND id = $2
			FOR UPDATE
		`, tenantID, id).Scan(&status)
		if err != nil {
			if isNotFoundError(err) {
				return storage.ErrNotFound
			}
			return fmt.Errorf("load target model: %w", err)
		}
		if !domain.CanTransition(domain.ModelStatus(status), domain.ModelStatusActive) {
			return domain.ErrIllegalTransition
		}

		cur, err := scanModel(tx.QueryRow(ctx, `
			SELECT `+modelColumns+`
			FROM model_versions
			WHERE tenant_id = $1 AND status = 'active'
			FOR UPDATE
		`, tenantID))
		switch {
		case err == nil:
			if _, err := tx.Exec(ctx, `
				UPDATE model_versions SET status = 'archived', updated_at = $3
				WHERE tenant_id = $1 AND id = $2
			`, tenantID, cur.ID, at); err != nil {
				return fmt.Errorf("archive active model: %w", err)
			}
			prev = cur
		case !isNotFoundError(err):
			return fmt.Errorf("load active model: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			UPDATE model_versions SET status = 'active', updated_at = $3
			WHERE tenant_id = $1 AND id = $2
		`, tenantID, id, at); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrConflict
			}
			return fmt.Errorf("activate model: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return prev, nil
}

// Archive moves an active model to archived.
func (s *ModelStore) Archive(ctx context.Context, tenantID, id string, at int64) error {
	return s.pool.withTx(ctx, func(tx pgx.Tx) error {
		var status string
		err := tx.QueryRow(ctx, `
			SELECT status FROM model_versions
			WHERE tenant_id = $1 AND id = $2
			FOR UPDATE
		`, tenantID, id).Scan(&status)
		if err != nil {
			if isNotFoundError(err) {
				return storage.ErrNotFound
			}
			return fmt.Errorf("load model: %w", err)
		}
		if !domain.CanTransition(domain.ModelStatus(status), domain.ModelStatusArchived) {
			return domain.ErrIllegalTransition
		}

		_, err = tx.Exec(ctx, `
			UPDATE model_versions SET status = 'archived', updated_at = $3
			WHERE tenant_id = $1 AND id = $2
		`, tenantID, id, at)
		if err != nil {
			return fmt.Errorf("archive model: %w", err)
		}
		return nil
	})
}

// scanModel scans a single row into a ModelRecord.
func scanModel(row pgx.Row) (*domain.ModelRecord, error) {
	var m domain.ModelRecord
	var status string
	var weights, metrics []byte

	err := row.Scan(
		&m.ID,
		&m.TenantID,
		&m.Name,
		&status,
		&weights,
		&metrics,
		&m.Notes,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.Status = domain.ModelStatus(status)
	if err := json.Unmarshal(weights, &m.Weights); err != nil {
		return nil, fmt.Errorf("decode weights of %s: %w", m.ID, err)
	}
	if err := json.Unmarshal(metrics, &m.Metrics); err != nil {
		return nil, fmt.Errorf("decode metrics of %s: %w", m.ID, err)
	}
	return &m, nil
}
