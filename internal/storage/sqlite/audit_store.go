package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"underwriting-lab/internal/domain"
	"underwriting-lab/internal/idhash"
	"underwriting-lab/internal/storage"
)

// AuditStore implements storage.AuditStore using SQLite.
type AuditStore struct {
	db *DB
}

// NewAuditStore creates a new AuditStore.
func NewAuditStore(db *DB) *AuditStore {
	return &AuditStore{db: db}
}

// Compile-time interface check.
var _ storage.AuditStore = (*AuditStore)(nil)

const auditColumns = `id, tenant_id, event_type, actor_id, actor_role, payload, created_at, prev_hash, hash`

// Append links e to the tenant's chain and stores it.
func (s *AuditStore) Append(ctx context.Context, e *domain.AuditEvent) error {
	if e == nil || e.ID == "" || e.TenantID == "" || e.EventType == "" {
		return storage.ErrInvalidInput
	}

	return s.db.withTx(ctx, func(tx *sql.Tx) error {
		var prev string
		err := tx.QueryRowContext(ctx, `
			SELECT hash FROM audit_events
			WHERE tenant_id = ?
			ORDER BY seq DESC
			LIMIT 1
		`, e.TenantID).Scan(&prev)
		if err != nil && !isNotFoundError(err) {
			return fmt.Errorf("load chain head: %w", err)
		}

		if err := idhash.Seal(e, prev); err != nil {
			return fmt.Errorf("seal audit event: %w", err)
		}
		payload, err := idhash.CanonicalPayload(e.Payload)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO audit_events (`+auditColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, e.ID, e.TenantID, e.EventType, e.ActorID, e.ActorRole, string(payload), e.CreatedAt, e.PrevHash, e.Hash)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert audit event: %w", err)
		}
		return nil
	})
}

// ListByTenant retrieves up to limit events, newest first.
func (s *AuditStore) ListByTenant(ctx context.Context, tenantID string, limit int) ([]*domain.AuditEvent, error) {
	return s.query(ctx, `
		SELECT `+auditColumns+` FROM audit_events
		WHERE tenant_id = ?
		ORDER BY seq DESC
		LIMIT ?
	`, tenantID, sqlLimit(limit))
}

// Chain retrieves every event of a tenant in append order.
func (s *AuditStore) Chain(ctx context.Context, tenantID string) ([]*domain.AuditEvent, error) {
	return s.query(ctx, `
		SELECT `+auditColumns+` FROM audit_events
		WHERE tenant_id = ?
		ORDER BY seq ASC
	`, tenantID)
}

func (s *AuditStore) query(ctx context.Context, query string, args ...any) ([]*domain.AuditEvent, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []*domain.AuditEvent
	for rows.Next() {
		var e domain.AuditEvent
		var payload string
		err := rows.Scan(
			&e.ID, &e.TenantID, &e.EventType, &e.ActorID, &e.ActorRole,
			&payload, &e.CreatedAt, &e.PrevHash, &e.Hash,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit row: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &e.Payload); err != nil {
			return nil, fmt.Errorf("decode payload of %s: %w", e.ID, err)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit rows: %w", err)
	}
	return events, nil
}
