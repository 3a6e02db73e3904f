package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/nconklindev/bulkmap/internal/mapping"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect captures the SQL differences between supported databases.
type Dialect struct {
	Name       string
	Driver     string
	Schema     string
	Upsert     string
	positional bool // $1, $2 instead of ?
}

var (
	DialectSQLite = Dialect{
		Name:   BackendSQLite,
		Driver: "sqlite",
		Schema: `CREATE TABLE IF NOT EXISTS vendor_mappings (
			id TEXT PRIMARY KEY,
			vendor TEXT NOT NULL UNIQUE,
			mapping_data TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		Upsert: `INSERT INTO vendor_mappings (id, vendor, mapping_data, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(vendor) DO UPDATE SET mapping_data = excluded.mapping_data, updated_at = excluded.updated_at`,
	}

	DialectPostgres = Dialect{
		Name:   BackendPostgres,
		Driver: "postgres",
		Schema: `CREATE TABLE IF NOT EXISTS vendor_mappings (
			id TEXT PRIMARY KEY,
			vendor TEXT NOT NULL UNIQUE,
			mapping_data TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		Upsert: `INSERT INTO vendor_mappings (id, vendor, mapping_data, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (vendor) DO UPDATE SET mapping_data = EXCLUDED.mapping_data, updated_at = EXCLUDED.updated_at`,
		positional: true,
	}

	DialectMySQL = Dialect{
		Name:   BackendMySQL,
		Driver: "mysql",
		Schema: `CREATE TABLE IF NOT EXISTS vendor_mappings (
			id VARCHAR(36) PRIMARY KEY,
			vendor VARCHAR(255) NOT NULL UNIQUE,
			mapping_data LONGTEXT NOT NULL,
			updated_at DATETIME(6) NOT NULL
		) CHARACTER SET utf8mb4`,
		Upsert: `INSERT INTO vendor_mappings (id, vendor, mapping_data, updated_at)
			VALUES (?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE mapping_data = VALUES(mapping_data), updated_at = VALUES(updated_at)`,
	}
)

// rebind rewrites ? placeholders for dialects that number them.
func (d Dialect) rebind(query string) string {
	if !d.positional {
		return query
	}

	var b strings.Builder

	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}

	return b.String()
}

// SQLStore keeps one vendor_mappings row per vendor.
type SQLStore struct {
	conn    *sql.DB
	dialect Dialect
}

// OpenSQLite opens (or creates) the sqlite file at dbPath.
func OpenSQLite(ctx context.Context, dbPath string) (*SQLStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("%w: sqlite path is empty", ErrStoreUnavailable)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("%w: create db directory: %w", ErrStoreUnavailable, err)
	}

	s, err := OpenSQL(ctx, DialectSQLite, dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}

	// SQLite only supports one writer
	s.conn.SetMaxOpenConns(1)

	return s, nil
}

// OpenSQL connects with dialect's driver, verifies the connection and
// creates the vendor table when missing.
func OpenSQL(ctx context.Context, dialect Dialect, dsn string) (*SQLStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: %s dsn is empty", ErrStoreUnavailable, dialect.Name)
	}

	conn, err := sql.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrStoreUnavailable, dialect.Name, err)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: ping %s: %w", ErrStoreUnavailable, dialect.Name, err)
	}

	s := &SQLStore{conn: conn, dialect: dialect}
	if err := s.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: migrate: %w", ErrStoreUnavailable, err)
	}

	return s, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	_, err := s.conn.ExecContext(ctx, s.dialect.Schema)
	return err
}

func (s *SQLStore) Load(ctx context.Context, vendor string) (*mapping.Config, bool, error) {
	vendor, err := normalizeVendor(vendor)
	if err != nil {
		return nil, false, err
	}

	var data string

	err = s.conn.QueryRowContext(ctx,
		s.dialect.rebind(`SELECT mapping_data FROM vendor_mappings WHERE vendor = ?`), vendor,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: load %q: %w", ErrStoreUnavailable, vendor, err)
	}

	cfg, err := decode(vendor, data)
	if err != nil {
		log.Printf("%s store: skipping vendor: %v", s.dialect.Name, err)
		return nil, false, nil
	}

	return cfg, true, nil
}

func (s *SQLStore) Save(ctx context.Context, vendor string, cfg *mapping.Config) error {
	vendor, err := normalizeVendor(vendor)
	if err != nil {
		return err
	}

	data, err := encode(vendor, cfg)
	if err != nil {
		return err
	}

	_, err = s.conn.ExecContext(ctx, s.dialect.rebind(s.dialect.Upsert),
		uuid.New().String(), vendor, data, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("%w: save %q: %w", ErrStoreUnavailable, vendor, err)
	}

	return nil
}

func (s *SQLStore) ListVendors(ctx context.Context) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT vendor FROM vendor_mappings ORDER BY vendor`)
	if err != nil {
		return nil, fmt.Errorf("%w: list vendors: %w", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var vendors []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		vendors = append(vendors, v)
	}

	return vendors, rows.Err()
}

func (s *SQLStore) Close() error {
	return s.conn.Close()
}
