// Package engine implements the per-shard storage engine: an in-memory
// table backed by a binary write-ahead log and a compressed snapshot.
//
// Big idea:
//   - Every write is applied to the in-memory table and queued for the WAL
//     before the call returns; a background timer drains the queue and
//     fsyncs it. This trades a small window of data loss for much higher
//     write throughput than a sync-per-write design.
//   - A background timer periodically serializes the full table to a
//     gzip-compressed JSON snapshot so recovery doesn't always have to
//     replay the WAL from the beginning of time.
//   - Recovery loads the snapshot (if any) then replays the WAL on top of
//     it; because the WAL is never truncated after a snapshot, replay can
//     re-apply records that predate the snapshot. That's fine: PUT and
//     DELETE are both idempotent.
package engine

import (
	"encoding/json"
	"fmt"
)

// Value is the polymorphic payload stored for a key: either an opaque
// UTF-8 string or a structured JSON document (an object or array). The two
// forms are never conflated — a bare JSON string or number is stored as a
// raw string, not unwrapped into the structured form.
type Value struct {
	isJSON bool
	raw    string
	doc    any // map[string]any or []any, only meaningful when isJSON
}

// NewStringValue wraps s as a raw, non-JSON value.
func NewStringValue(s string) Value {
	return Value{raw: s}
}

// NewJSONValue wraps v as a structured value. v must be a map[string]any or
// a []any; anything else is rejected since the engine never stores a bare
// JSON scalar as structured data (see spec design notes on lossy coercion).
func NewJSONValue(v any) (Value, bool) {
	switch v.(type) {
	case map[string]any, []any:
		return Value{isJSON: true, doc: v}, true
	default:
		return Value{}, false
	}
}

// IsJSON reports whether the value holds a structured document.
func (v Value) IsJSON() bool { return v.isJSON }

// String returns the raw string form. Only meaningful when !IsJSON().
func (v Value) String() string { return v.raw }

// Doc returns the structured form. Only meaningful when IsJSON().
func (v Value) Doc() any { return v.doc }

// Bytes returns the canonical on-disk encoding: the UTF-8 bytes of the raw
// string, or the canonical JSON serialization of the structured document.
// This is exactly what the WAL stores as the value payload.
func (v Value) Bytes() ([]byte, error) {
	if v.isJSON {
		return json.Marshal(v.doc)
	}
	return []byte(v.raw), nil
}

// valueFromBytes reconstructs a Value from its on-disk byte encoding. It
// re-parses the bytes as JSON and keeps the structured form only when that
// parse yields an object or array; bare numbers and strings are kept as raw
// bytes so a value like "42" round-trips as the string "42", not the
// number 42.
func valueFromBytes(b []byte) Value {
	var parsed any
	if err := json.Unmarshal(b, &parsed); err == nil {
		switch parsed.(type) {
		case map[string]any, []any:
			return Value{isJSON: true, doc: parsed}
		}
	}
	return Value{raw: string(b)}
}

// MarshalJSON lets a Value sit directly inside a larger JSON document
// (snapshot entries, HTTP responses) without the caller needing to know
// which form it holds.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.isJSON {
		return json.Marshal(v.doc)
	}
	return json.Marshal(v.raw)
}

// UnmarshalJSON is the inverse of MarshalJSON, used when decoding snapshot
// entries back into memory.
func (v *Value) UnmarshalJSON(b []byte) error {
	var parsed any
	if err := json.Unmarshal(b, &parsed); err != nil {
		return err
	}
	switch t := parsed.(type) {
	case string:
		*v = Value{raw: t}
	case map[string]any, []any:
		*v = Value{isJSON: true, doc: t}
	default:
		return fmt.Errorf("engine: value has unsupported JSON shape %T", parsed)
	}
	return nil
}

// Record is a stored value plus the millisecond timestamp it was applied
// at. The timestamp is advisory only — it is not a vector clock and is not
// guaranteed to be monotonic across process restarts.
type Record struct {
	Value Value `json:"value"`
	Ts    int64 `json:"ts"`
}
