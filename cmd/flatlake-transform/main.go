package main

import (
	"context"
	"flag"
	"os"
	"strconv"
	"time"

	"flatlake/internal/modkit"
	"flatlake/internal/modkit/module"
	"flatlake/internal/modkit/repokit"
	"flatlake/internal/platform/config"
	"flatlake/internal/platform/logger"
	"flatlake/internal/platform/store"

	transformdom "flatlake/internal/services/transform/domain"
	transformmod "flatlake/internal/services/transform/module"
)

func mustSetEnv(key, val string) {
	if val != "" {
		_ = os.Setenv(key, val)
	}
}

func main() {
	root := config.New()
	blobCfg := root.Prefix("SERVICE_BLOB_")
	pgCfg := root.Prefix("SERVICE_PGSQL_")

	l := logger.Get()

	// Ledger is optional; only dial postgres when a DBURL is present
	pgURL := pgCfg.MayString("DBURL", "")

	st, err := store.Open(context.Background(), store.Config{
		AppName: "flatlake-transform",
		PG: store.PGConfig{
			Enabled:     pgURL != "",
			URL:         pgURL,
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
		Blob: store.BlobConfig{
			Enabled:   true,
			Endpoint:  blobCfg.MustString("ENDPOINT"),
			AccessKey: blobCfg.MustString("ACCESS_KEY"),
			SecretKey: blobCfg.MustString("SECRET_KEY"),
			Secure:    blobCfg.MayBool("SECURE", false),
			Region:    blobCfg.MayString("REGION", ""),
		},
	}, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	// fail fast when a configured backend is unreachable
	repokit.MustGuard(context.Background(), st)

	var (
		fHour    = flag.String("hour", "", "UTC partition hour YYYY-MM-DDTHH (required)")
		fSource  = flag.String("source", "", "source bucket (overrides CORE_TRANSFORM_SOURCE_BUCKET)")
		fDest    = flag.String("dest", "", "destination bucket (overrides CORE_TRANSFORM_DEST_BUCKET)")
		fWorkers = flag.Int("workers", 0, "parallel objects (overrides CORE_TRANSFORM_WORKERS)")
		fLedger  = flag.Bool("ledger", false, "record the run in the postgres ledger")
	)
	flag.Parse()

	if *fHour == "" {
		l.Panic().Msg("must provide -hour")
	}
	hour, err := time.Parse("2006-01-02T15", *fHour)
	if err != nil {
		l.Panic().Err(err).Msg("bad -hour")
	}

	// Surface flag overrides to the module's FromConfig
	mustSetEnv("CORE_TRANSFORM_SOURCE_BUCKET", *fSource)
	mustSetEnv("CORE_TRANSFORM_DEST_BUCKET", *fDest)
	if *fWorkers > 0 {
		mustSetEnv("CORE_TRANSFORM_WORKERS", strconv.Itoa(*fWorkers))
	}
	if *fLedger {
		mustSetEnv("CORE_TRANSFORM_LEDGER", "1")
	}

	deps := modkit.Deps{
		Cfg:  root,
		PG:   st.PG,
		Blob: st.Blob,
		Log:  *l,
	}

	tm := transformmod.New(deps)
	module.Register(tm.Name(), tm.Ports())

	ctx := context.Background()
	part := transformdom.PartitionOf(hour)

	runner := module.MustPortsOf[transformdom.RunnerPort](tm)
	rep, err := runner.RunPartition(ctx, part)
	if err != nil {
		l.Fatal().Err(err).Str("partition", part.Prefix()).Msg("transform failed")
	}

	l.Info().
		Str("run_id", rep.RunID).
		Str("partition", part.Prefix()).
		Int("objects", len(rep.Outcomes)).
		Int("succeeded", rep.Succeeded).
		Int("failed", rep.Failed).
		Int("elapsed_ms", rep.ElapsedMS).
		Msg("transform finished")

	if rep.Failed > 0 {
		os.Exit(1)
	}
}
