package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"underwriting-lab/internal/domain"
	"underwriting-lab/internal/storage"
)

// ModelStore implements storage.ModelStore using SQLite.
type ModelStore struct {
	db *DB
}

// NewModelStore creates a new ModelStore.
func NewModelStore(db *DB) *ModelStore {
	return &ModelStore{db: db}
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

	_, err = s.db.exec(ctx, `
		INSERT INTO model_versions (`+modelColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.TenantID, m.Name, string(m.Status), string(weights), string(metrics), m.Notes, m.CreatedAt, m.UpdatedAt)
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
	m, err := scanModel(s.db.QueryRowContext(ctx, `
		SELECT `+modelColumns+` FROM model_versions
		WHERE tenant_id = ? AND id = ?
	`, tenantID, id))
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
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+modelColumns+` FROM model_versions
		WHERE tenant_id = ?
		ORDER BY created_at DESC, id ASC
	`, tenantID)
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
	m, err := scanModel(s.db.QueryRowContext(ctx, `
		SELECT `+modelColumns+` FROM model_versions
		WHERE tenant_id = ? AND status = 'active'
	`, tenantID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get active model: %w", err)
	}
	return m, nil
}

// ActivateExclusive archives the current active model and activates id in one transaction.
func (s *ModelStore) ActivateExclusive(ctx context.Context, tenantID, id string, at int64) (*domain.ModelRecord, error) {
	var prev *domain.ModelRecord

	err := s.db.withTx(ctx, func(tx *sql.Tx) error {
		var status string
		err := tx.QueryRowContext(ctx, `
			SELECT status FROM model_versions WHERE tenant_id = ? AND id = ?
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

		cur, err := scanModel(tx.QueryRowContext(ctx, `
			SELECT `+modelColumns+` FROM model_versions
			WHERE tenant_id = ? AND status = 'active'
		`, tenantID))
		switch {
		case err == nil:
			if _, err := tx.ExecContext(ctx, `
				UPDATE model_versions SET status = 'archived', updated_at = ?
				WHERE tenant_id = ? AND id = ?
			`, at, tenantID, cur.ID); err != nil {
				return fmt.Errorf("archive active model: %w", err)
			}
			prev = cur
		case !isNotFoundError(err):
			return fmt.Errorf("load active model: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE model_versions SET status = 'active', updated_at = ?
			WHERE tenant_id = ? AND id = ?
		`, at, tenantID, id); err != nil {
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
	return s.db.withTx(ctx, func(tx *sql.Tx) error {
		var status string
		err := tx.QueryRowContext(ctx, `
			SELECT status FROM model_versions WHERE tenant_id = ? AND id = ?
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

		if _, err := tx.ExecContext(ctx, `
			UPDATE model_versions SET status = 'archived', updated_at = ?
			WHERE tenant_id = ? AND id = ?
		`, at, tenantID, id); err != nil {
			return fmt.Errorf("archive model: %w", err)
		}
		return nil
	})
}

// scanModel scans a single row into a ModelRecord.
func scanModel(row rowScanner) (*domain.ModelRecord, error) {
	var m domain.ModelRecord
	var status, weights, metrics string

	err := row.Scan(&m.ID, &m.TenantID, &m.Name, &status, &weights, &metrics, &m.Notes, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}

	m.Status = domain.ModelStatus(status)
	if err := json.Unmarshal([]byte(weights), &m.Weights); err != nil {
		return nil, fmt.Errorf("decode weights of %s: %w", m.ID, err)
	}
	if err := json.Unmarshal([]byte(metrics), &m.Metrics); err != nil {
		return nil, fmt.Errorf("decode metrics of %s: %w", m.ID, err)
	}
	return &m, nil
}
