// Package service provides the transform pipeline implementation
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"flatlake/internal/modkit/repokit"
	perr "flatlake/internal/platform/errors"
	"flatlake/internal/platform/logger"
	"flatlake/internal/services/transform/domain"
	"flatlake/internal/services/transform/guardrails"
)

// destContentType is stamped on every written object
const destContentType = "application/octet-stream"

// Config holds configuration options for the transform service
type Config struct {
	// SourceBucket holds the partitioned JSON objects
	SourceBucket string

	// DestBucket receives the encoded objects under the mirrored prefix
	DestBucket string

	// Workers is the number of objects processed in parallel; <=0 -> 1
	Workers int

	// Separator joins flattened key segments; empty -> "_"
	Separator string

	// Timeouts applied via guardrails; PartitionTimeout caps the whole run
	PartitionTimeout time.Duration
	ListTimeout      time.Duration
	ReadTimeout      time.Duration
	EncodeTimeout    time.Duration
	WriteTimeout     time.Duration
}

// Service implements the transform pipeline
type Service struct {
	Lister   domain.Lister
	Reader   domain.ObjectReader
	Writer   domain.ObjectWriter
	Assemble domain.Assembler
	Encode   domain.Encoder
	Cfg      Config

	// Optional run ledger; both must be set for recording to happen
	DB     repokit.TxRunner
	Binder repokit.Binder[domain.LedgerRepo]
}

// New constructs the transform service
func New(
	lister domain.Lister,
	reader domain.ObjectReader,
	writer domain.ObjectWriter,
	asm domain.Assembler,
	enc domain.Encoder,
	cfg Config,
) *Service {
	if lister == nil || reader == nil || writer == nil {
		panic("transform.Service requires non nil store ports")
	}
	if asm == nil || enc == nil {
		panic("transform.Service requires non nil assembler and encoder")
	}
	return &Service{
		Lister: lister, Reader: reader, Writer: writer,
		Assemble: asm, Encode: enc,
		Cfg: cfg,
	}
}

// WithLedger wires the optional run ledger
func (s *Service) WithLedger(db repokit.TxRunner, binder repokit.Binder[domain.LedgerRepo]) *Service {
	s.DB = db
	s.Binder = binder
	return s
}

// RunPartition implements domain.RunnerPort.
// Discovery failure is the only fatal path; every discovered key ends up with
// exactly one outcome regardless of individual failures
func (s *Service) RunPartition(ctx context.Context, p PartitionRef) (domain.Report, error) {
	if s.Cfg.SourceBucket == "" || s.Cfg.DestBucket == "" {
		return domain.Report{}, perr.InvalidArgf("transform: source and destination buckets are required")
	}

	runID := uuid.NewString()
	rep := domain.Report{RunID: runID, Partition: p}
	ctx = logger.WithRun(ctx, runID, p.Prefix())

	tos := guardrails.Timeouts{
		Partition: s.Cfg.PartitionTimeout,
		List:      s.Cfg.ListTimeout,
		Read:      s.Cfg.ReadTimeout,
		Encode:    s.Cfg.EncodeTimeout,
		Write:     s.Cfg.WriteTimeout,
	}
	runCtx, runCancel := guardrails.WithPartition(ctx, tos)
	defer runCancel()

	startWall := time.Now()
	s.ledgerStart(ctx, runID, p)

	listCtx, listCancel := guardrails.ForList(runCtx, tos)
	keys, err := s.Lister.List(listCtx, s.Cfg.SourceBucket, p.Prefix())
	listCancel()
	if err != nil {
		derr := perr.Wrap(err, perr.ErrorCodeDiscovery, "list partition "+p.Prefix())
		rep.ElapsedMS = int(time.Since(startWall).Milliseconds())
		s.ledgerFinish(ctx, runID, rep, derr.Error())
		return rep, derr
	}

	logger.C(ctx).Info().
		Int("objects", len(keys)).
		Str("source_bucket", s.Cfg.SourceBucket).
		Str("dest_bucket", s.Cfg.DestBucket).
		Msg("transform: partition discovered")

	rep.Outcomes = make([]domain.Outcome, len(keys))
	for i, k := range keys {
		rep.Outcomes[i] = domain.Outcome{SourceKey: k, Status: domain.StatusSkipped}
	}

	w := max(s.Cfg.Workers, 1)
	idxCh := make(chan int)
	var wg sync.WaitGroup
	for range w {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idxCh {
				// honor cancellation between objects; untouched slots stay skipped
				if runCtx.Err() != nil {
					continue
				}
				rep.Outcomes[i] = s.processObject(runCtx, tos, keys[i])
			}
		}()
	}
	for i := range keys {
		idxCh <- i
	}
	close(idxCh)
	wg.Wait()

	rep.Tally()
	rep.ElapsedMS = int(time.Since(startWall).Milliseconds())

	var errText string
	if cerr := runCtx.Err(); cerr != nil {
		errText = cerr.Error()
	}
	s.ledgerFinish(ctx, runID, rep, errText)

	logger.C(ctx).Info().
		Int("succeeded", rep.Succeeded).
		Int("failed", rep.Failed).
		Int("elapsed_ms", rep.ElapsedMS).
		Msg("transform: partition finished")

	if cerr := runCtx.Err(); cerr != nil {
		return rep, cerr
	}
	return rep, nil
}

// PartitionRef is re-exported for callers holding only the service
type PartitionRef = domain.PartitionRef

func (s *Service) processObject(ctx context.Context, tos guardrails.Timeouts, key string) domain.Outcome {
	ctx = logger.WithObject(ctx, key)
	out := domain.Outcome{SourceKey: key}
	t0 := time.Now()
	defer func() { out.ElapsedMS = int(time.Since(t0).Milliseconds()) }()

	readCtx, readCancel := guardrails.ForRead(ctx, tos)
	raw, err := s.Reader.Get(readCtx, s.Cfg.SourceBucket, key)
	readCancel()
	if err != nil {
		return s.fail(ctx, out, domain.StatusReadError, err)
	}

	encCtx, encCancel := guardrails.ForEncode(ctx, tos)
	defer encCancel()

	batch, err := s.Assemble.Assemble(raw, s.Cfg.Separator)
	if err != nil {
		return s.fail(ctx, out, domain.StatusTransformError, err)
	}
	if batch.Discarded > 0 {
		logger.C(ctx).Warn().
			Int("discarded", batch.Discarded).
			Msg("transform: result envelope narrowed to first record")
	}
	out.Rows = batch.NumRows()
	out.Cols = batch.NumColumns()
	out.Discarded = batch.Discarded

	data, err := s.Encode.Encode(batch)
	if err != nil {
		return s.fail(ctx, out, domain.StatusEncodeError, err)
	}
	if cerr := encCtx.Err(); cerr != nil {
		return s.fail(ctx, out, domain.StatusEncodeError, cerr)
	}
	out.Bytes = len(data)
	out.DestKey = domain.DestinationKey(key)

	writeCtx, writeCancel := guardrails.ForWrite(ctx, tos)
	defer writeCancel()
	if err := s.Writer.EnsureBucket(writeCtx, s.Cfg.DestBucket); err != nil {
		return s.fail(ctx, out, domain.StatusWriteError, err)
	}
	if err := s.Writer.Put(writeCtx, s.Cfg.DestBucket, out.DestKey, data, destContentType); err != nil {
		return s.fail(ctx, out, domain.StatusWriteError, err)
	}

	out.Status = domain.StatusOK
	logger.C(ctx).Debug().
		Str("dest", out.DestKey).
		Int("rows", out.Rows).
		Int("cols", out.Cols).
		Int("bytes", out.Bytes).
		Msg("transform: object written")
	return out
}

func (s *Service) fail(ctx context.Context, out domain.Outcome, st domain.Status, err error) domain.Outcome {
	out.Status = st
	out.Err = errText(err)
	logger.C(ctx).Error().Err(err).Str("status", string(st)).Msg("transform: object failed")
	return out
}

// errText prefixes the message with the machine code when one is attached
func errText(err error) string {
	if err == nil {
		return ""
	}
	if code := perr.CodeOf(err); code != perr.ErrorCodeUnknown {
		return fmt.Sprintf("%s: %v", code, err)
	}
	return err.Error()
}

// Ledger writes are best effort; a dead ledger never fails a run

func (s *Service) ledgerStart(ctx context.Context, runID string, p domain.PartitionRef) {
	if s.DB == nil || s.Binder == nil {
		return
	}
	err := repokit.WithTx(ctx, s.DB, func(q repokit.Queryer) error {
		return s.Binder.Bind(q).StartRun(ctx, runID, p)
	})
	if err != nil {
		logger.C(ctx).Warn().Err(err).Msg("transform: ledger StartRun failed")
	}
}

func (s *Service) ledgerFinish(ctx context.Context, runID string, rep domain.Report, errText string) {
	if s.DB == nil || s.Binder == nil {
		return
	}
	err := repokit.WithTx(ctx, s.DB, func(q repokit.Queryer) error {
		repo := s.Binder.Bind(q)
		if len(rep.Outcomes) > 0 {
			if e := repo.InsertOutcomes(ctx, runID, rep.Outcomes); e != nil {
				return e
			}
		}
		return repo.FinishRun(ctx, runID, rep, errText)
	})
	if err != nil {
		logger.C(ctx).Warn().Err(err).Msg("transform: ledger FinishRun failed")
	}
}
