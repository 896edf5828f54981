// Package parquetenc encodes tabular batches as Parquet files.
//
// Column types are inferred from the observed non-null cells. Every column is
// optional so padded Null cells encode as parquet nulls.
package parquetenc

import (
	"bytes"

	"github.com/parquet-go/parquet-go"

	"flatlake/internal/core/jsonval"
	"flatlake/internal/core/tabular"
	perr "flatlake/internal/platform/errors"
)

// Encoder turns batches into Parquet bytes
type Encoder struct{}

// New returns a ready Encoder
func New() *Encoder { return &Encoder{} }

// Encode writes b as a single Parquet file.
// It fails with EmptyBatch on zero columns and TypeConflict when a column
// holds more than one non-null kind
func (e *Encoder) Encode(b *tabular.Batch) ([]byte, error) {
	if b == nil || b.NumColumns() == 0 {
		return nil, perr.EmptyBatchf("batch has no columns")
	}

	group := parquet.Group{}
	for i, col := range b.Columns {
		node, err := inferColumn(b, i)
		if err != nil {
			return nil, perr.WithField(err, col)
		}
		group[col] = parquet.Optional(node)
	}
	schema := parquet.NewSchema("batch", group)

	rows := make([]map[string]any, 0, b.NumRows())
	for _, row := range b.Rows {
		rec := make(map[string]any, len(b.Columns))
		for i, col := range b.Columns {
			cell, err := goValue(row[i])
			if err != nil {
				return nil, perr.WithField(err, col)
			}
			rec[col] = cell
		}
		rows = append(rows, rec)
	}

	var buf bytes.Buffer
	w := parquet.NewGenericWriter[map[string]any](&buf, schema)
	if _, err := w.Write(rows); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "write parquet rows")
	}
	if err := w.Close(); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "close parquet writer")
	}
	return buf.Bytes(), nil
}

// inferColumn picks the physical type for column i.
// A column with only nulls encodes as an untyped optional string
func inferColumn(b *tabular.Batch, i int) (parquet.Node, error) {
	var kind jsonval.Kind
	seen := false
	for _, row := range b.Rows {
		v := row[i]
		if v.IsNull() {
			continue
		}
		if !seen {
			kind = v.Kind
			seen = true
			continue
		}
		if v.Kind != kind {
			return nil, perr.TypeConflictf("column mixes %s and %s", kind, v.Kind)
		}
	}
	if !seen {
		return parquet.String(), nil
	}
	switch kind {
	case jsonval.String:
		return parquet.String(), nil
	case jsonval.Number:
		return parquet.Leaf(parquet.DoubleType), nil
	case jsonval.Bool:
		return parquet.Leaf(parquet.BooleanType), nil
	default:
		return nil, perr.TypeConflictf("column holds non-scalar kind %s", kind)
	}
}

func goValue(v jsonval.Value) (any, error) {
	switch v.Kind {
	case jsonval.Null:
		return nil, nil
	case jsonval.String:
		return v.Str, nil
	case jsonval.Bool:
		return v.Bool, nil
	case jsonval.Number:
		f, err := v.Num.Float64()
		if err != nil {
			return nil, perr.MalformedInputf("number %q out of range", v.Num)
		}
		return f, nil
	default:
		return nil, perr.TypeConflictf("cell holds non-scalar kind %s", v.Kind)
	}
}
