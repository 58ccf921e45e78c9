package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/cloo-solutions/molpanel/internal/pagination"
	"github.com/cloo-solutions/molpanel/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RetrievalLogRepository stores one row per completed panel retrieval.
type RetrievalLogRepository struct {
	pool *pgxpool.Pool
}

func NewRetrievalLogRepository(pool *pgxpool.Pool) *RetrievalLogRepository {
	return &RetrievalLogRepository{pool: pool}
}

func (r *RetrievalLogRepository) CreateRetrievalLog(ctx context.Context, entry service.RetrievalLogEntry) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx,
		`INSERT INTO retrieval_logs (panel_id, smiles, strategy, outcome, similar_count, commercial_count, pubchem_count, error, duration_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		entry.PanelID,
		entry.SMILES,
		entry.Strategy,
		entry.Outcome,
		entry.SimilarCount,
		entry.CommercialCount,
		entry.PubChemCount,
		nullableString(entry.Error),
		entry.DurationMs,
	).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

// ListByPanel returns a panel's logs, newest first. A non-nil cursor resumes
// after the log it points at.
func (r *RetrievalLogRepository) ListByPanel(ctx context.Context, panelID string, limit int, cursor *pagination.Cursor) ([]service.RetrievalLog, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, panel_id, smiles, strategy, outcome, similar_count, commercial_count, pubchem_count,
		        COALESCE(error, ''), duration_ms, created_at
		 FROM retrieval_logs
		 WHERE panel_id = $1`
	args := []any{panelID}
	if cursor != nil {
		query += ` AND (created_at, id) < ($2, $3::uuid)`
		args = append(args, cursor.Timestamp, cursor.LastID)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []service.RetrievalLog
	for rows.Next() {
		var l service.RetrievalLog
		if err := rows.Scan(
			&l.ID,
			&l.PanelID,
			&l.SMILES,
			&l.Strategy,
			&l.Outcome,
			&l.SimilarCount,
			&l.CommercialCount,
			&l.PubChemCount,
			&l.Error,
			&l.DurationMs,
			&l.CreatedAt,
		); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// DeleteOlderThan prunes logs created before cutoff and reports how many went.
func (r *RetrievalLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM retrieval_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
