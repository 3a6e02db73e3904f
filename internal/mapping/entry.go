package mapping

import (
	"fmt"
	"maps"
	"strings"
)

// Kind tags the value source of an Entry.
type Kind int

const (
	KindUnmapped Kind = iota
	KindColumn
	KindConstant
)

func (k Kind) String() string {
	switch k {
	case KindColumn:
		return "column"
	case KindConstant:
		return "constant"
	default:
		return "unmapped"
	}
}

// DisplayFormat is the per-column coercion and export policy.
type DisplayFormat int

const (
	FormatGeneral DisplayFormat = iota
	FormatText
	FormatNumber
)

// Wire tags, as stored in the "fmt" field of MappingData.
const (
	wireGeneral = "General"
	wireText    = "@"
	wireNumber  = "#,##0"
)

// Formats lists the display formats in the order the console cycles them.
var Formats = []DisplayFormat{FormatGeneral, FormatText, FormatNumber}

func (f DisplayFormat) String() string {
	switch f {
	case FormatText:
		return "Text"
	case FormatNumber:
		return "Number"
	default:
		return "General"
	}
}

// Wire returns the spreadsheet number-format tag persisted for f.
func (f DisplayFormat) Wire() string {
	switch f {
	case FormatText:
		return wireText
	case FormatNumber:
		return wireNumber
	default:
		return wireGeneral
	}
}

// ParseFormat accepts either a wire tag ("General", "@", "#,##0") or a
// format name ("text", "number"), case-insensitively for names.
func ParseFormat(s string) (DisplayFormat, error) {
	switch s {
	case wireGeneral:
		return FormatGeneral, nil
	case wireText:
		return FormatText, nil
	case wireNumber:
		return FormatNumber, nil
	}

	switch strings.ToLower(strings.TrimSpace(s)) {
	case "general", "":
		return FormatGeneral, nil
	case "text":
		return FormatText, nil
	case "number":
		return FormatNumber, nil
	}

	return FormatGeneral, fmt.Errorf("unknown display format %q", s)
}

// Entry binds one target column to its value source.
// An unmapped entry carries no format; its Format is always FormatGeneral.
type Entry struct {
	Kind   Kind
	Value  string // source header for KindColumn, literal for KindConstant
	Format DisplayFormat
}

// Unmapped returns an entry producing no value.
func Unmapped() Entry {
	return Entry{Kind: KindUnmapped}
}

// ColumnRef returns an entry copying the named source column.
func ColumnRef(sourceHeader string, format DisplayFormat) Entry {
	return Entry{Kind: KindColumn, Value: sourceHeader, Format: format}
}

// Constant returns an entry repeating literal on every row.
func Constant(literal string, format DisplayFormat) Entry {
	return Entry{Kind: KindConstant, Value: literal, Format: format}
}

func (e Entry) IsUnmapped() bool { return e.Kind == KindUnmapped }

// WithFormat returns a copy of e using format. Unmapped entries stay formatless.
func (e Entry) WithFormat(format DisplayFormat) Entry {
	if e.IsUnmapped() {
		return e
	}

	e.Format = format

	return e
}

func (e Entry) String() string {
	switch e.Kind {
	case KindColumn:
		return fmt.Sprintf("column(%s, %s)", e.Value, e.Format)
	case KindConstant:
		return fmt.Sprintf("constant(%q, %s)", e.Value, e.Format)
	default:
		return "unmapped"
	}
}

// Config is a vendor's mapping: target header to entry.
// A missing key means the target column is unmapped.
type Config struct {
	Vendor  string
	Entries map[string]Entry
}

// NewConfig returns an empty mapping for vendor.
func NewConfig(vendor string) *Config {
	return &Config{Vendor: vendor, Entries: make(map[string]Entry)}
}

// Get returns the entry for target, or Unmapped when absent.
func (c *Config) Get(target string) Entry {
	if c == nil {
		return Unmapped()
	}

	if e, ok := c.Entries[target]; ok {
		return e
	}

	return Unmapped()
}

// Lookup reports whether target has an explicit entry.
func (c *Config) Lookup(target string) (Entry, bool) {
	if c == nil {
		return Unmapped(), false
	}

	e, ok := c.Entries[target]
	if !ok || e.IsUnmapped() {
		return Unmapped(), false
	}

	return e, true
}

// Set binds target to e. Binding Unmapped removes the key.
func (c *Config) Set(target string, e Entry) {
	if c.Entries == nil {
		c.Entries = make(map[string]Entry)
	}

	if e.IsUnmapped() {
		delete(c.Entries, target)
		return
	}

	c.Entries[target] = e
}

// Len returns the number of mapped target columns.
func (c *Config) Len() int {
	if c == nil {
		return 0
	}

	return len(c.Entries)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}

	return &Config{Vendor: c.Vendor, Entries: maps.Clone(c.Entries)}
}
