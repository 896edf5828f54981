// Package domain holds the core business logic and data structures for transform
package domain

import (
	"fmt"
	"strings"
	"time"
)

// PartitionRef names one hour-grained partition in the object store
type PartitionRef struct{ Year, Month, Day, Hour int }

// UTC returns the UTC time corresponding to the PartitionRef
func (p PartitionRef) UTC() time.Time {
	return time.Date(p.Year, time.Month(p.Month), p.Day, p.Hour, 0, 0, 0, time.UTC)
}

// Prefix returns the object key prefix for the partition.
// Components are unpadded decimal, matching the writer that laid the data out
func (p PartitionRef) Prefix() string {
	return fmt.Sprintf("year=%d/month=%d/day=%d/hour=%d/", p.Year, p.Month, p.Day, p.Hour)
}

// PartitionOf converts a wall clock time to its partition
func PartitionOf(t time.Time) PartitionRef {
	t = t.UTC()
	return PartitionRef{Year: t.Year(), Month: int(t.Month()), Day: t.Day(), Hour: t.Hour()}
}

// Status classifies the outcome of one object
type Status string

// Object outcome statuses
const (
	StatusOK             Status = "ok"
	StatusReadError      Status = "read_error"
	StatusTransformError Status = "transform_error"
	StatusEncodeError    Status = "encode_error"
	StatusWriteError     Status = "write_error"
	StatusSkipped        Status = "skipped"
)

// Outcome is the per-object result. Err is empty on success
type Outcome struct {
	SourceKey string
	DestKey   string
	Status    Status
	Err       string
	Rows      int
	Cols      int
	Bytes     int
	Discarded int
	ElapsedMS int
}

// OK reports whether the object completed
func (o Outcome) OK() bool { return o.Status == StatusOK }

// Report is the full result of one partition run.
// Outcomes holds exactly one entry per discovered key, in discovery order
type Report struct {
	RunID     string
	Partition PartitionRef
	Outcomes  []Outcome
	Succeeded int
	Failed    int
	ElapsedMS int
}

// Tally recomputes Succeeded/Failed from Outcomes
func (r *Report) Tally() {
	r.Succeeded, r.Failed = 0, 0
	for _, o := range r.Outcomes {
		if o.OK() {
			r.Succeeded++
		} else {
			r.Failed++
		}
	}
}

// DestinationKey derives the destination object key from a source key.
// The partition path is kept as-is; a trailing ".json" on the last segment
// becomes ".parquet", otherwise ".parquet" is appended
func DestinationKey(sourceKey string) string {
	if strings.HasSuffix(sourceKey, ".json") {
		return strings.TrimSuffix(sourceKey, ".json") + ".parquet"
	}
	return sourceKey + ".parquet"
}
