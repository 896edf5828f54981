// Package jsonval models decoded JSON values with member order preserved.
//
// encoding/json maps lose the order keys appeared in on the wire, which
// matters downstream when column order is derived from first appearance.
// Value keeps object members as an ordered slice instead.
package jsonval

import (
	"bytes"
	"io"

	perr "flatlake/internal/platform/errors"
	json "github.com/goccy/go-json"
)

// Kind discriminates the JSON value variants
type Kind uint8

// JSON value kinds
const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

// String returns the lowercase kind name for logs and error messages
func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a tagged JSON value. Exactly the field matching Kind is meaningful
type Value struct {
	Kind Kind
	Bool bool
	Num  json.Number
	Str  string
	Arr  []Value
	Obj  []Member
}

// Member is one object member. Obj preserves wire order
type Member struct {
	Key string
	Val Value
}

// Field returns the member value for key, scanning in wire order
func (v Value) Field(key string) (Value, bool) {
	if v.Kind != Object {
		return Value{}, false
	}
	for _, m := range v.Obj {
		if m.Key == key {
			return m.Val, true
		}
	}
	return Value{}, false
}

// IsNull reports whether the value is JSON null
func (v Value) IsNull() bool { return v.Kind == Null }

// Decode parses a single JSON document. Trailing non-whitespace after the
// document is an error, as is any syntactically invalid input
func Decode(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return Value{}, perr.MalformedInputf("decode json: %v", err)
	}

	// anything after the first document is garbage
	if _, err := dec.Token(); err != io.EOF {
		return Value{}, perr.MalformedInputf("trailing data after json document")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	return valueFromToken(dec, tok)
}

func valueFromToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		default:
			return Value{}, perr.Newf(perr.ErrorCodeMalformedInput, "unexpected delimiter %q", t.String())
		}
	case bool:
		return Value{Kind: Bool, Bool: t}, nil
	case json.Number:
		return Value{Kind: Number, Num: t}, nil
	case string:
		return Value{Kind: String, Str: t}, nil
	case nil:
		return Value{Kind: Null}, nil
	default:
		return Value{}, perr.Newf(perr.ErrorCodeMalformedInput, "unexpected token %T", tok)
	}
}

func decodeObject(dec *json.Decoder) (Value, error) {
	var members []Member
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Value{}, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return Value{}, perr.Newf(perr.ErrorCodeMalformedInput, "object key is %T, not string", keyTok)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return Value{}, err
		}
		members = append(members, Member{Key: key, Val: val})
	}
	// consume '}'
	if _, err := dec.Token(); err != nil {
		return Value{}, err
	}
	return Value{Kind: Object, Obj: members}, nil
}

func decodeArray(dec *json.Decoder) (Value, error) {
	var elems []Value
	for dec.More() {
		el, err := decodeValue(dec)
		if err != nil {
			return Value{}, err
		}
		elems = append(elems, el)
	}
	// consume ']'
	if _, err := dec.Token(); err != nil {
		return Value{}, err
	}
	return Value{Kind: Array, Arr: elems}, nil
}
