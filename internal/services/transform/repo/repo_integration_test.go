//go:build integration_pg
// +build integration_pg

package repo

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"flatlake/internal/modkit/repokit"
	"flatlake/internal/platform/store"
	"flatlake/internal/services/transform/domain"

	"github.com/rs/zerolog"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPostgres launches a disposable Postgres and returns its DSN + stop func
func startPostgres(t *testing.T) (dsn string, stop func()) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)

	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
			"POSTGRES_DB":       "postgres",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5432/tcp"),
			wait.ForLog("database system is ready to accept connections"),
		).WithDeadline(2 * time.Minute),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		cancel()
		t.Fatalf("failed to start postgres container: %v", err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("failed to get container host: %v", err)
	}
	mp, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("failed to get mapped port: %v", err)
	}

	dsn = fmt.Sprintf("postgres://postgres:postgres@%s:%s/postgres?sslmode=disable", host, mp.Port())
	return dsn, func() {
		_ = c.Terminate(context.Background())
		cancel()
	}
}

// openLedgerDB dials the container and creates the ledger schema
func openLedgerDB(t *testing.T, ctx context.Context, dsn string) repokit.TxRunner {
	t.Helper()

	st, err := store.Open(ctx, store.Config{
		AppName: "flatlake-test",
		PG: store.PGConfig{
			Enabled:  true,
			URL:      dsn,
			MaxConns: 2,
		},
	}, store.WithLogger(zerolog.New(io.Discard)))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close(context.Background()) })

	ddl := []string{
		`CREATE TABLE IF NOT EXISTS transform_runs (
			run_id        TEXT PRIMARY KEY,
			partition_utc TIMESTAMPTZ NOT NULL,
			started_at    TIMESTAMPTZ NOT NULL,
			finished_at   TIMESTAMPTZ,
			status        TEXT NOT NULL,
			objects       INT,
			succeeded     INT,
			failed        INT,
			elapsed_ms    INT,
			error         TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS transform_objects (
			run_id     TEXT NOT NULL,
			source_key TEXT NOT NULL,
			dest_key   TEXT,
			status     TEXT NOT NULL,
			rows_out   INT,
			cols_out   INT,
			bytes_out  INT,
			discarded  INT,
			elapsed_ms INT,
			error      TEXT,
			PRIMARY KEY (run_id, source_key)
		)`,
	}
	for _, stmt := range ddl {
		if _, err := st.PG.Exec(ctx, stmt); err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return st.PG
}

func TestLedger_RunLifecycle(t *testing.T) {
	dsn, stop := startPostgres(t)
	defer stop()

	ctx := context.Background()
	db := openLedgerDB(t, ctx, dsn)
	binder := NewPG()

	part := domain.PartitionRef{Year: 2025, Month: 12, Day: 19, Hour: 14}
	const runID = "run-integration-1"

	rep := domain.Report{
		RunID:     runID,
		Partition: part,
		Outcomes: []domain.Outcome{
			{
				SourceKey: part.Prefix() + "a.json",
				DestKey:   part.Prefix() + "a.parquet",
				Status:    domain.StatusOK,
				Rows:      12, Cols: 4, Bytes: 2048, ElapsedMS: 7,
			},
			{
				SourceKey: part.Prefix() + "b.json",
				Status:    domain.StatusReadError,
				Err:       "unavailable: connection reset",
				ElapsedMS: 3,
			},
		},
		ElapsedMS: 42,
	}
	rep.Tally()

	err := repokit.WithTx(ctx, db, func(q repokit.Queryer) error {
		return binder.Bind(q).StartRun(ctx, runID, part)
	})
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}

	err = repokit.WithTx(ctx, db, func(q repokit.Queryer) error {
		repo := binder.Bind(q)
		if e := repo.InsertOutcomes(ctx, runID, rep.Outcomes); e != nil {
			return e
		}
		return repo.FinishRun(ctx, runID, rep, "")
	})
	if err != nil {
		t.Fatalf("record outcomes: %v", err)
	}

	var status string
	var objects, succeeded, failed int
	err = db.QueryRow(ctx, `
		SELECT status, objects, succeeded, failed
		FROM transform_runs WHERE run_id = $1
	`, runID).Scan(&status, &objects, &succeeded, &failed)
	if err != nil {
		t.Fatalf("read back run: %v", err)
	}
	// one failed outcome marks the whole run
	if status != "error" || objects != 2 || succeeded != 1 || failed != 1 {
		t.Fatalf("run row = %s %d/%d/%d", status, objects, succeeded, failed)
	}

	rows, err := db.Query(ctx, `
		SELECT source_key, status, dest_key IS NULL, error IS NULL
		FROM transform_objects WHERE run_id = $1 ORDER BY source_key
	`, runID)
	if err != nil {
		t.Fatalf("read back outcomes: %v", err)
	}
	defer rows.Close()

	type objRow struct {
		key, status   string
		noDest, noErr bool
	}
	var got []objRow
	for rows.Next() {
		var r objRow
		if err := rows.Scan(&r.key, &r.status, &r.noDest, &r.noErr); err != nil {
			t.Fatalf("scan outcome: %v", err)
		}
		got = append(got, r)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows err: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("outcome rows = %d, want 2", len(got))
	}
	if got[0].status != "ok" || got[0].noDest || !got[0].noErr {
		t.Fatalf("ok row = %+v", got[0])
	}
	// empty dest/error strings land as NULL
	if got[1].status != "read_error" || !got[1].noDest || got[1].noErr {
		t.Fatalf("failed row = %+v", got[1])
	}
}

func TestLedger_StartAndInsertAreIdempotent(t *testing.T) {
	dsn, stop := startPostgres(t)
	defer stop()

	ctx := context.Background()
	db := openLedgerDB(t, ctx, dsn)
	binder := NewPG()

	part := domain.PartitionRef{Year: 2025, Month: 12, Day: 19, Hour: 15}
	const runID = "run-integration-2"
	outcomes := []domain.Outcome{
		{SourceKey: part.Prefix() + "a.json", Status: domain.StatusOK, Rows: 1},
	}

	for range 2 {
		err := repokit.WithTx(ctx, db, func(q repokit.Queryer) error {
			repo := binder.Bind(q)
			if e := repo.StartRun(ctx, runID, part); e != nil {
				return e
			}
			return repo.InsertOutcomes(ctx, runID, outcomes)
		})
		if err != nil {
			t.Fatalf("replay: %v", err)
		}
	}

	var runs, objs int
	if err := db.QueryRow(ctx, `SELECT count(*) FROM transform_runs WHERE run_id = $1`, runID).Scan(&runs); err != nil {
		t.Fatalf("count runs: %v", err)
	}
	if err := db.QueryRow(ctx, `SELECT count(*) FROM transform_objects WHERE run_id = $1`, runID).Scan(&objs); err != nil {
		t.Fatalf("count objects: %v", err)
	}
	if runs != 1 || objs != 1 {
		t.Fatalf("replay produced %d runs / %d objects, want 1/1", runs, objs)
	}
}

func TestLedger_TxRollbackDiscardsWrites(t *testing.T) {
	dsn, stop := startPostgres(t)
	defer stop()

	ctx := context.Background()
	db := openLedgerDB(t, ctx, dsn)
	binder := NewPG()

	part := domain.PartitionRef{Year: 2025, Month: 12, Day: 19, Hour: 16}
	const runID = "run-integration-3"

	errAbort := fmt.Errorf("abort after start")
	err := repokit.WithTx(ctx, db, func(q repokit.Queryer) error {
		if e := binder.Bind(q).StartRun(ctx, runID, part); e != nil {
			return e
		}
		return errAbort
	})
	if err == nil {
		t.Fatalf("WithTx should surface the callback error")
	}

	var runs int
	if err := db.QueryRow(ctx, `SELECT count(*) FROM transform_runs WHERE run_id = $1`, runID).Scan(&runs); err != nil {
		t.Fatalf("count runs: %v", err)
	}
	if runs != 0 {
		t.Fatalf("rolled back run still visible: %d rows", runs)
	}
}
