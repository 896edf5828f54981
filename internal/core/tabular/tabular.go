// Package tabular assembles raw JSON documents into rectangular batches.
//
// A document yields one or more records (see recordSet), each record is
// flattened, and the batch columns are the first-seen-order union of every
// record's keys. Cells a record never produced are padded with Null so every
// row has the same width.
package tabular

import (
	"flatlake/internal/core/flatten"
	"flatlake/internal/core/jsonval"
	perr "flatlake/internal/platform/errors"
)

// Batch is a rectangular slice of flattened records.
// len(Rows[i]) == len(Columns) for every row
type Batch struct {
	// Columns in first-appearance order across all records
	Columns []string

	// Rows of cells aligned with Columns. Absent cells are Null
	Rows [][]jsonval.Value

	// Discarded counts result-envelope records dropped by the narrowing rule
	Discarded int
}

// NumRows returns the row count
func (b *Batch) NumRows() int { return len(b.Rows) }

// NumColumns returns the column count
func (b *Batch) NumColumns() int { return len(b.Columns) }

// Assemble parses raw as JSON and builds a batch using sep as the flattening
// separator. It fails with MalformedInput on unparseable input and EmptyBatch
// when the document yields zero records
func Assemble(raw []byte, sep string) (*Batch, error) {
	v, err := jsonval.Decode(raw)
	if err != nil {
		return nil, err
	}

	records, discarded := recordSet(v)
	if len(records) == 0 {
		return nil, perr.EmptyBatchf("document yields no records")
	}

	flat := make([]*flatten.Record, len(records))
	for i, rec := range records {
		flat[i] = flatten.Flatten(rec, sep)
	}

	b := &Batch{Discarded: discarded}
	index := make(map[string]int)
	for _, fr := range flat {
		for _, k := range fr.Keys {
			if _, seen := index[k]; !seen {
				index[k] = len(b.Columns)
				b.Columns = append(b.Columns, k)
			}
		}
	}

	for _, fr := range flat {
		row := make([]jsonval.Value, len(b.Columns))
		for i := range row {
			row[i] = jsonval.Value{Kind: jsonval.Null}
		}
		for k, val := range fr.Values {
			row[index[k]] = val
		}
		b.Rows = append(b.Rows, row)
	}
	return b, nil
}

// recordSet splits a decoded document into its records.
// An array contributes one record per element. An object carrying an array
// "results" member narrows to results[0] with the tail counted as discarded.
// Anything else is a single record
func recordSet(v jsonval.Value) (records []jsonval.Value, discarded int) {
	switch v.Kind {
	case jsonval.Array:
		return v.Arr, 0
	case jsonval.Object:
		if res, ok := v.Field("results"); ok && res.Kind == jsonval.Array {
			if len(res.Arr) == 0 {
				return nil, 0
			}
			return res.Arr[:1], len(res.Arr) - 1
		}
		return []jsonval.Value{v}, 0
	default:
		return []jsonval.Value{v}, 0
	}
}
