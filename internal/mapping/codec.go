package mapping

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ConstantPrefix marks a literal in a persisted value descriptor.
const ConstantPrefix = "FIXED::"

// ErrMalformedEntry is returned when persisted MappingData matches neither
// the legacy nor the current shape.
var ErrMalformedEntry = errors.New("malformed mapping entry")

// wireEntry is the current persisted shape.
type wireEntry struct {
	Val *string `json:"val"`
	Fmt *string `json:"fmt,omitempty"`
}

// descriptor renders the value half of the persisted shape.
func (e Entry) descriptor() string {
	if e.Kind == KindConstant {
		return ConstantPrefix + e.Value
	}

	return e.Value
}

// parseDescriptor reads a bare value descriptor. The empty descriptor is unmapped.
func parseDescriptor(s string, format DisplayFormat) Entry {
	if literal, ok := strings.CutPrefix(s, ConstantPrefix); ok {
		return Constant(literal, format)
	}

	if s == "" {
		return Unmapped()
	}

	return ColumnRef(s, format)
}

// MarshalJSON always emits the current {"val","fmt"} shape.
func (e Entry) MarshalJSON() ([]byte, error) {
	if e.IsUnmapped() {
		return []byte("null"), nil
	}

	val := e.descriptor()
	format := e.Format.Wire()

	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(wireEntry{Val: &val, Fmt: &format}); err != nil {
		return nil, err
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON accepts both persisted shapes:
// a bare descriptor string (legacy, format General) or a {"val","fmt"} object.
func (e *Entry) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	switch {
	case bytes.Equal(data, []byte("null")):
		*e = Unmapped()
		return nil

	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedEntry, err)
		}

		*e = parseDescriptor(s, FormatGeneral)

		return nil

	case len(data) > 0 && data[0] == '{':
		var w wireEntry
		if err := json.Unmarshal(data, &w); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedEntry, err)
		}

		if w.Val == nil {
			return fmt.Errorf("%w: missing \"val\"", ErrMalformedEntry)
		}

		format := FormatGeneral

		if w.Fmt != nil {
			f, err := ParseFormat(*w.Fmt)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrMalformedEntry, err)
			}

			format = f
		}

		*e = parseDescriptor(*w.Val, format)

		return nil

	default:
		return fmt.Errorf("%w: expected string or object, got %s", ErrMalformedEntry, truncate(data, 32))
	}
}

// DecodeConfig parses a MappingData document for vendor.
func DecodeConfig(vendor string, data []byte) (*Config, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEntry, err)
	}

	cfg := NewConfig(vendor)

	for target, msg := range raw {
		var e Entry
		if err := e.UnmarshalJSON(msg); err != nil {
			return nil, fmt.Errorf("target %q: %w", target, err)
		}

		cfg.Set(target, e)
	}

	return cfg, nil
}

// EncodeConfig renders cfg as a MappingData document in the current shape.
// Non-ASCII headers are written as-is.
func EncodeConfig(cfg *Config) ([]byte, error) {
	out := make(map[string]Entry, cfg.Len())

	if cfg != nil {
		for target, e := range cfg.Entries {
			if !e.IsUnmapped() {
				out[target] = e
			}
		}
	}

	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(out); err != nil {
		return nil, err
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}

	return string(b[:n]) + "..."
}
