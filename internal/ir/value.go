package ir

import (
	"encoding/json"
	"fmt"
	"slices"
	"unicode/utf16"
)

// TraceValue is a sealed interface over the value kinds allowed in
// evaluation trace records. Only Str, Int, Bool, Arr, and Obj implement it.
// NO floats - they break deterministic replay and content addressing.
type TraceValue interface {
	traceValue() // sealed
}

// Str is a string trace value.
type Str string

func (Str) traceValue() {}

// Int is an integer trace value. Always int64, never float64.
type Int int64

func (Int) traceValue() {}

// Bool is a boolean trace value.
type Bool bool

func (Bool) traceValue() {}

// Arr is an ordered list of trace values.
type Arr []TraceValue

func (Arr) traceValue() {}

// Obj is a string-keyed map of trace values.
// Use SortedKeys for deterministic iteration.
type Obj map[string]TraceValue

func (Obj) traceValue() {}

// SortedKeys returns keys in canonical JSON order (UTF-16 code units, per
// RFC 8785). Go's sort.Strings compares UTF-8 bytes, which orders
// supplementary-plane characters differently, so it must not be used here.
func (o Obj) SortedKeys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

// compareUTF16 compares strings by UTF-16 code units, the ordering RFC 8785
// requires for canonical JSON object keys.
func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	default:
		return 0
	}
}

// ToTraceValue converts plain Go values (as produced by yaml/json decoding)
// into TraceValues. Floats and nulls are rejected.
func ToTraceValue(v any) (TraceValue, error) {
	switch val := v.(type) {
	case TraceValue:
		return val, nil
	case string:
		return Str(val), nil
	case int:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint64:
		if val > 1<<63-1 {
			return nil, fmt.Errorf("integer %d overflows int64", val)
		}
		return Int(val), nil
	case bool:
		return Bool(val), nil
	case []any:
		arr := make(Arr, len(val))
		for i, elem := range val {
			tv, err := ToTraceValue(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = tv
		}
		return arr, nil
	case map[string]any:
		obj := make(Obj, len(val))
		for k, elem := range val {
			tv, err := ToTraceValue(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			obj[k] = tv
		}
		return obj, nil
	case nil:
		return nil, fmt.Errorf("null is forbidden in trace values")
	case float32, float64:
		return nil, fmt.Errorf("floats are forbidden in trace values: %v", val)
	default:
		return nil, fmt.Errorf("unsupported trace value type %T", v)
	}
}

// UnmarshalTraceValue decodes a JSON document into a TraceValue.
// Floats and nulls are rejected, matching ToTraceValue.
func UnmarshalTraceValue(data []byte) (TraceValue, error) {
	return unmarshalTraceValue(data)
}

func unmarshalTraceValue(data []byte) (TraceValue, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty JSON value")
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return Str(s), nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return Bool(b), nil
	case 'n':
		return nil, fmt.Errorf("null is forbidden in trace values")
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		arr := make(Arr, len(raw))
		for i, r := range raw {
			v, err := unmarshalTraceValue(r)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = v
		}
		return arr, nil
	case '{':
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		obj := make(Obj, len(raw))
		for k, r := range raw {
			v, err := unmarshalTraceValue(r)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			obj[k] = v
		}
		return obj, nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		i, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("non-integer number %q is forbidden in trace values", n)
		}
		return Int(i), nil
	}
}
