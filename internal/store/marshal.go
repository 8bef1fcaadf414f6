package store

import (
	"fmt"

	"github.com/roach88/fixpoint/internal/ir"
)

// marshalObj converts a trace object to canonical JSON TEXT for storage.
// Uses RFC 8785 canonical JSON so identical objects store identical text,
// which the content-addressed record IDs depend on.
func marshalObj(obj ir.Obj) (string, error) {
	if obj == nil {
		return "", nil
	}
	data, err := ir.MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("marshal trace object: %w", err)
	}
	return string(data), nil
}

// unmarshalObj parses canonical JSON TEXT back to a trace object.
// An empty column reads as a nil object.
func unmarshalObj(data string) (ir.Obj, error) {
	if data == "" {
		return nil, nil
	}
	v, err := ir.UnmarshalTraceValue([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal trace object: %w", err)
	}
	obj, ok := v.(ir.Obj)
	if !ok {
		return nil, fmt.Errorf("unmarshal trace object: not an object: %T", v)
	}
	return obj, nil
}
