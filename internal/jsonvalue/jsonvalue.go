// Package jsonvalue works with decoded JSON values: the closed set of Go values
// produced by a JSON decoder into `any` (nil, bool, float64, string, []any and
// map[string]any).
//
// Recursion in this package is only defined over the Object case. Arrays are
// treated as opaque leaves by MergeObject, matching how project documents use
// them for settings and metadata.
package jsonvalue

import (
	"encoding/json"
	"sort"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// Kind is the JSON type of a decoded value.
type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
	// Invalid is returned for Go values a JSON decoder never produces.
	Invalid
)

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
		return "invalid"
	}
}

// KindOf classifies v.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return Null
	case bool:
		return Bool
	case float64, float32, int, int32, int64, uint, uint32, uint64, json.Number:
		return Number
	case string:
		return String
	case []any:
		return Array
	case map[string]any:
		return Object
	default:
		return Invalid
	}
}

// IsObject reports whether v is a JSON object.
func IsObject(v any) bool {
	_, ok := v.(map[string]any)
	return ok
}

// equateEmpty makes a nil map equal to an empty one, and likewise for slices.
// Documents written by different editor versions disagree on "{}" vs absent.
var equateEmpty = cmpopts.EquateEmpty()

// Equal reports deep structural equality of two decoded values.
func Equal(a, b any) bool {
	return cmp.Equal(a, b, equateEmpty)
}

// Clone returns a deep copy of v. Scalars are returned as-is.
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Clone(e)
		}
		return out
	default:
		return v
	}
}

// CloneMap returns a deep copy of m. A nil map stays nil.
func CloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = Clone(v)
	}
	return out
}

// SortedKeys returns the keys of m in lexical order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Without returns a shallow copy of m lacking the named keys. The result is
// nil when nothing remains.
func Without(m map[string]any, keys ...string) map[string]any {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
