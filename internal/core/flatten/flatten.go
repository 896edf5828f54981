// Package flatten collapses nested JSON values into single-level records.
//
// Object members contribute their key, array elements contribute their
// base-10 index, and path segments are joined with a separator. The root
// contributes no segment, so top-level keys keep their original names.
package flatten

import (
	"strconv"

	"flatlake/internal/core/jsonval"
)

// DefaultSeparator joins path segments unless the caller overrides it
const DefaultSeparator = "_"

// Record is one flattened JSON value. Keys preserves first-appearance order;
// Values holds the leaf for each key
type Record struct {
	Keys   []string
	Values map[string]jsonval.Value
}

// Len returns the number of distinct keys in the record
func (r *Record) Len() int { return len(r.Keys) }

// Get returns the leaf value for key
func (r *Record) Get(key string) (jsonval.Value, bool) {
	v, ok := r.Values[key]
	return v, ok
}

// Flatten collapses v into a Record. A scalar or null root produces a single
// entry under the empty key. Empty objects and arrays contribute nothing.
// When two paths collapse to the same key the later value wins but the key
// keeps its first position
func Flatten(v jsonval.Value, sep string) *Record {
	if sep == "" {
		sep = DefaultSeparator
	}
	r := &Record{Values: make(map[string]jsonval.Value)}
	walk(r, "", v, sep, true)
	return r
}

func walk(r *Record, prefix string, v jsonval.Value, sep string, root bool) {
	switch v.Kind {
	case jsonval.Object:
		for _, m := range v.Obj {
			walk(r, join(prefix, m.Key, sep, root), m.Val, sep, false)
		}
	case jsonval.Array:
		for i, el := range v.Arr {
			walk(r, join(prefix, strconv.Itoa(i), sep, root), el, sep, false)
		}
	default:
		r.set(prefix, v)
	}
}

func join(prefix, seg, sep string, root bool) string {
	if root {
		return seg
	}
	return prefix + sep + seg
}

func (r *Record) set(key string, v jsonval.Value) {
	if _, seen := r.Values[key]; !seen {
		r.Keys = append(r.Keys, key)
	}
	r.Values[key] = v
}
