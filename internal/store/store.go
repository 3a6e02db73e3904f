package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nconklindev/bulkmap/internal/mapping"
)

var (
	// ErrStoreUnavailable means the backend cannot be opened or reached.
	ErrStoreUnavailable = errors.New("mapping store unavailable")
	// ErrMalformedEntry marks a stored MappingData value that cannot be decoded.
	ErrMalformedEntry = errors.New("malformed mapping data")
	ErrEmptyVendor    = errors.New("vendor name is required")
)

// Record header labels of the vendor table.
const (
	ColumnVendor      = "Vendor"
	ColumnMappingData = "MappingData"
)

// Store is the keyed vendor → mapping collection. Saves are upserts with
// last-write-wins semantics: there is no locking or revision check.
type Store interface {
	// Load returns the vendor's mapping, or false when none is stored or the
	// stored data is malformed.
	Load(ctx context.Context, vendor string) (*mapping.Config, bool, error)
	// Save inserts or replaces the vendor's mapping in the current shape.
	Save(ctx context.Context, vendor string, cfg *mapping.Config) error
	// ListVendors returns every stored vendor name, sorted.
	ListVendors(ctx context.Context) ([]string, error)
	Close() error
}

// Backend names accepted by Open.
const (
	BackendSheet    = "sheet"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMySQL    = "mysql"
)

// Options selects and configures a backend.
type Options struct {
	Backend string
	Path    string // workbook or sqlite file
	DSN     string // postgres / mysql
}

// Open returns the configured backend. Failures wrap ErrStoreUnavailable.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(opts.Backend) {
	case BackendSheet, "":
		return NewSheetStore(opts.Path)
	case BackendSQLite:
		return OpenSQLite(ctx, opts.Path)
	case BackendPostgres:
		return OpenSQL(ctx, DialectPostgres, opts.DSN)
	case BackendMySQL:
		return OpenSQL(ctx, DialectMySQL, opts.DSN)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrStoreUnavailable, opts.Backend)
	}
}

func normalizeVendor(vendor string) (string, error) {
	vendor = strings.TrimSpace(vendor)
	if vendor == "" {
		return "", ErrEmptyVendor
	}
	return vendor, nil
}

// decode wraps the codec error for a stored vendor record.
func decode(vendor, data string) (*mapping.Config, error) {
	cfg, err := mapping.DecodeConfig(vendor, []byte(data))
	if err != nil {
		return nil, fmt.Errorf("%w: vendor %q: %w", ErrMalformedEntry, vendor, err)
	}
	return cfg, nil
}

func encode(vendor string, cfg *mapping.Config) (string, error) {
	if cfg == nil {
		cfg = mapping.NewConfig(vendor)
	}

	data, err := mapping.EncodeConfig(cfg)
	if err != nil {
		return "", fmt.Errorf("encode mapping for %q: %w", vendor, err)
	}
	return string(data), nil
}
