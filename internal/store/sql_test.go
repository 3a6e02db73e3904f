package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nconklindev/bulkmap/internal/mapping"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func openTestSQLite(t *testing.T) *SQLStore {
	t.Helper()

	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "data", "mappings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func TestSQLiteStoreUpsert(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)

	_, ok, err := s.Load(ctx, "acme")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(ctx, "acme", sampleConfig("acme")))

	changed := sampleConfig("acme")
	changed.Set("Origin", mapping.Constant("수입", mapping.FormatText))
	require.NoError(t, s.Save(ctx, "acme", changed))
	require.NoError(t, s.Save(ctx, "나이키", mapping.NewConfig("나이키")))

	got, ok, err := s.Load(ctx, "acme")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, changed, got)

	empty, ok, err := s.Load(ctx, "나이키")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, empty.Len())

	vendors, err := s.ListVendors(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"acme", "나이키"}, vendors)

	var count int
	require.NoError(t, s.conn.QueryRow(`SELECT COUNT(*) FROM vendor_mappings`).Scan(&count))
	assert.Equal(t, 2, count)
}

func TestSQLiteStoreLegacyAndMalformed(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)

	_, err := s.conn.Exec(`INSERT INTO vendor_mappings (id, vendor, mapping_data) VALUES
		('1', 'legacy', '{"Origin":"FIXED::N/A"}'),
		('2', 'broken', '{"Origin":{"fmt":"@"}}')`)
	require.NoError(t, err)

	got, ok, err := s.Load(ctx, "legacy")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, mapping.Constant("N/A", mapping.FormatGeneral), got.Get("Origin"))

	_, ok, err = s.Load(ctx, "broken")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), Options{Backend: "redis"})
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	_, err = Open(context.Background(), Options{Backend: BackendPostgres})
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestOpenSQLiteBackend(t *testing.T) {
	s, err := Open(context.Background(), Options{Backend: "SQLite", Path: filepath.Join(t.TempDir(), "m.db")})
	require.NoError(t, err)
	defer s.Close()

	assert.IsType(t, &SQLStore{}, s)
}

func TestRebind(t *testing.T) {
	q := `UPDATE t SET a = ?, b = ? WHERE c = ?`
	assert.Equal(t, `UPDATE t SET a = $1, b = $2 WHERE c = $3`, DialectPostgres.rebind(q))
	assert.Equal(t, q, DialectSQLite.rebind(q))
	assert.Equal(t, q, DialectMySQL.rebind(q))
}
