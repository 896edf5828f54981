package domain

import (
	"context"

	"flatlake/internal/core/tabular"
)

// RunnerPort is the public port exposed by the module (what callers invoke)
type RunnerPort interface {
	RunPartition(ctx context.Context, p PartitionRef) (Report, error)
}

// Lister enumerates object keys under a prefix
type Lister interface {
	List(ctx context.Context, bucket, prefix string) ([]string, error)
}

// ObjectReader fetches one object's bytes
type ObjectReader interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
}

// ObjectWriter stores one object's bytes
type ObjectWriter interface {
	// EnsureBucket creates the bucket if it does not exist
	EnsureBucket(ctx context.Context, bucket string) error

	// Put writes data under key with the given content type
	Put(ctx context.Context, bucket, key string, data []byte, contentType string) error
}

// StorePorts bundles the object store collaborators for module wiring.
// A single blob client usually serves all three
type StorePorts struct {
	Lister Lister
	Reader ObjectReader
	Writer ObjectWriter
}

// Assembler turns raw JSON bytes into a rectangular batch
type Assembler interface {
	Assemble(raw []byte, sep string) (*tabular.Batch, error)
}

// Encoder turns a batch into columnar file bytes
type Encoder interface {
	Encode(b *tabular.Batch) ([]byte, error)
}

// LedgerRepo records runs and per-object outcomes (optional)
type LedgerRepo interface {
	// StartRun inserts the run row before any object is processed
	StartRun(ctx context.Context, runID string, p PartitionRef) error

	// FinishRun closes out the run row with the final tallies
	FinishRun(ctx context.Context, runID string, r Report, errText string) error

	// InsertOutcomes appends the per-object rows for the run
	InsertOutcomes(ctx context.Context, runID string, outcomes []Outcome) error
}
