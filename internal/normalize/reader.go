// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// RawRecord is one decoded entry from a source payload. Fields maps a source
// field name to a scalar (string, number, bool) or nil. Index is the entry's
// position in the payload's list, kept for error reports.
type RawRecord struct {
	Index  int
	Fields map[string]any
}

// Lookup returns the raw value of field and whether it is present.
func (r RawRecord) Lookup(field string) (any, bool) {
	v, ok := r.Fields[field]
	return v, ok
}

// Text returns field rendered as a string. Absent and null fields yield "".
// Objects and arrays are not scalars and produce an error.
func (r RawRecord) Text(field string) (string, error) {
	v, ok := r.Fields[field]
	if !ok {
		return "", nil
	}
	return scalarString(v)
}

func scalarString(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case json.Number:
		return numberString(x), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case bool:
		return strconv.FormatBool(x), nil
	default:
		return "", fmt.Errorf("not a scalar (%T)", v)
	}
}

// numberString renders n in plain decimal: integers keep every digit and
// exponent forms such as 1.5E3 are expanded.
func numberString(n json.Number) string {
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	lit := n.String()
	if !strings.ContainsAny(lit, ".eE") {
		// Integer wider than int64.
		return lit
	}
	f, err := n.Float64()
	if err != nil {
		return lit
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Batch is the output of ReadEntries: the usable entries plus one error for
// each list element that was not an object.
type Batch struct {
	Records []RawRecord
	Skipped []*RecordError
}

// ReadEntries walks path through nested objects in payload and returns the
// list of entries found there. A missing path element, a non-object on the
// way, or a non-list at the end is a *MalformedResponseError. An empty list
// is a valid, empty Batch.
func ReadEntries(source string, payload any, path ...string) (Batch, error) {
	malformed := func(reason string) error {
		return &MalformedResponseError{Source: source, Path: path, Reason: reason}
	}
	if len(path) == 0 {
		return Batch{}, malformed("empty entry path")
	}

	node := payload
	for i, key := range path {
		obj, ok := node.(map[string]any)
		if !ok {
			if i == 0 {
				return Batch{}, malformed(fmt.Sprintf("payload is %s, not an object", kind(node)))
			}
			return Batch{}, malformed(fmt.Sprintf("%q is %s, not an object", path[i-1], kind(node)))
		}
		next, ok := obj[key]
		if !ok {
			return Batch{}, malformed(fmt.Sprintf("missing %q", key))
		}
		node = next
	}

	list, ok := node.([]any)
	if !ok {
		return Batch{}, malformed(fmt.Sprintf("entries are %s, not a list", kind(node)))
	}

	batch := Batch{Records: make([]RawRecord, 0, len(list))}
	for i, item := range list {
		fields, ok := item.(map[string]any)
		if !ok {
			batch.Skipped = append(batch.Skipped, &RecordError{
				Source: source,
				Index:  i,
				Reason: fmt.Sprintf("entry is %s, not an object", kind(item)),
			})
			continue
		}
		batch.Records = append(batch.Records, RawRecord{Index: i, Fields: fields})
	}
	return batch, nil
}

// kind names the JSON type of v for error messages.
func kind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "an object"
	case []any:
		return "a list"
	case string:
		return "a string"
	case bool:
		return "a boolean"
	case json.Number, float64, float32, int, int64:
		return "a number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
