// Package repo provides postgres access for the transform run ledger
package repo

import (
	"context"
	"fmt"

	"flatlake/internal/modkit/repokit"
	"flatlake/internal/services/transform/domain"
)

type (
	// PG is a Postgres binder for domain.LedgerRepo
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG returns a Postgres binder for domain.LedgerRepo
func NewPG() repokit.Binder[domain.LedgerRepo] { return PG{} }

// Bind implements repokit.Binder
func (PG) Bind(q repokit.Queryer) domain.LedgerRepo { return &queries{q: q} }

// StartRun inserts the run row (idempotent on run_id)
func (r *queries) StartRun(ctx context.Context, runID string, p domain.PartitionRef) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO transform_runs (run_id, partition_utc, started_at, status)
		VALUES ($1, $2, now(), 'running')
		ON CONFLICT (run_id) DO NOTHING
	`, runID, p.UTC())
	return err
}

// FinishRun closes out the run row with the final tallies
func (r *queries) FinishRun(ctx context.Context, runID string, rep domain.Report, errText string) error {
	status := "ok"
	if errText != "" || rep.Failed > 0 {
		status = "error"
	}
	_, err := r.q.Exec(ctx, `
		UPDATE transform_runs SET
			finished_at = now(),
			status = $2,
			objects = $3,
			succeeded = $4,
			failed = $5,
			elapsed_ms = $6,
			error = NULLIF($7,'')
		WHERE run_id = $1
	`,
		runID, status, len(rep.Outcomes), rep.Succeeded, rep.Failed, rep.ElapsedMS, errText,
	)
	return err
}

// InsertOutcomes appends one row per object outcome
func (r *queries) InsertOutcomes(ctx context.Context, runID string, outcomes []domain.Outcome) error {
	const insertSQL = `
		INSERT INTO transform_objects (
			run_id, source_key, dest_key, status,
			rows_out, cols_out, bytes_out, discarded, elapsed_ms, error
		)
		VALUES ($1, $2, NULLIF($3,''), $4, $5, $6, $7, $8, $9, NULLIF($10,''))
		ON CONFLICT (run_id, source_key) DO NOTHING
	`
	for _, o := range outcomes {
		_, err := r.q.Exec(ctx, insertSQL,
			runID, o.SourceKey, o.DestKey, string(o.Status),
			o.Rows, o.Cols, o.Bytes, o.Discarded, o.ElapsedMS, o.Err,
		)
		if err != nil {
			return fmt.Errorf("insert outcome %s: %w", o.SourceKey, err)
		}
	}
	return nil
}
