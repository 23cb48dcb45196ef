package clickhouse

import (
	"context"
	"fmt"

	"underwriting-lab/internal/domain"
	"underwriting-lab/internal/storage"
)

// RunStore implements storage.RunStore using ClickHouse.
type RunStore struct {
	conn *Conn
}

// NewRunStore creates a new RunStore.
func NewRunStore(conn *Conn) *RunStore {
	return &RunStore{conn: conn}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

const runColumns = `
	report_id, tenant_id, address, created_at,
	score, score_base, score_ai, ai_weight,
	grade, grade_detail, verdict, confidence,
	cap_rate, coc, dscr, irr, model_id
`

// Insert adds a run snapshot. Returns ErrDuplicateKey if report_id exists.
func (s *RunStore) Insert(ctx context.Context, r *domain.RunSnapshot) error {
	return s.InsertBulk(ctx, []*domain.RunSnapshot{r})
}

// InsertBulk adds multiple snapshots. Fails entire batch on any duplicate.
func (s *RunStore) InsertBulk(ctx context.Context, runs []*domain.RunSnapshot) error {
	if len(runs) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	seen := make(map[string]struct{}, len(runs))
	ids := make([]string, 0, len(runs))
	for _, r := range runs {
		if r == nil || r.ReportID == "" || r.TenantID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[r.ReportID]; exists {
			return storage.ErrDuplicateKey
		}
		seen[r.ReportID] = struct{}{}
		ids = append(ids, r.ReportID)
	}

	// MergeTree does not enforce uniqueness, so check existing rows explicitly
	exists, err := s.anyExists(ctx, ids)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO underwriting_runs (`+runColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range runs {
		err = batch.Append(
			r.ReportID, r.TenantID, r.Address, r.CreatedAt,
			r.Score, r.ScoreBase, r.ScoreAI, r.AIWeight,
			r.Grade, r.GradeDetail, r.Verdict, r.Confidence,
			r.CapRate, r.CoC, r.DSCR, r.IRR, r.ModelID,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByTenant retrieves runs within [start, end] (inclusive), ordered by created_at ASC.
func (s *RunStore) GetByTenant(ctx context.Context, tenantID string, start, end int64) ([]*domain.RunSnapshot, error) {
	query := `
		SELECT ` + runColumns + `
		FROM underwriting_runs
		WHERE tenant_id = ? AND created_at >= ? AND created_at <= ?
		ORDER BY created_at ASC, report_id ASC
	`

	rows, err := s.conn.Query(ctx, query, tenantID, start, end)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*domain.RunSnapshot
	for rows.Next() {
		var r domain.RunSnapshot
		err := rows.Scan(
			&r.ReportID, &r.TenantID, &r.Address, &r.CreatedAt,
			&r.Score, &r.ScoreBase, &r.ScoreAI, &r.AIWeight,
			&r.Grade, &r.GradeDetail, &r.Verdict, &r.Confidence,
			&r.CapRate, &r.CoC, &r.DSCR, &r.IRR, &r.ModelID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		runs = append(runs, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return runs, nil
}

// anyExists reports whether any of the report ids is already stored.
func (s *RunStore) anyExists(ctx context.Context, reportIDs []string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx,
		`SELECT count() FROM underwriting_runs WHERE report_id IN (?)`,
		reportIDs,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
