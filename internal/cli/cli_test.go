package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/nconklindev/bulkmap/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fixture struct {
	dir        string
	configPath string
	template   string
	source     string
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	dir := t.TempDir()
	f := fixture{
		dir:        dir,
		configPath: filepath.Join(dir, "bulkmap.toml"),
		template:   filepath.Join(dir, "templates", "default.csv"),
		source:     filepath.Join(dir, "vendor.csv"),
	}

	require.NoError(t, os.MkdirAll(filepath.Dir(f.template), 0755))
	require.NoError(t, os.WriteFile(f.template, []byte("SKU[필수],Price,Memo[필수]\n"), 0644))
	require.NoError(t, os.WriteFile(f.source, []byte("sku_code,price\nA1,\"10,000\"\nA2,500\n"), 0644))

	config := fmt.Sprintf(`
[store]
backend = "sqlite"
path = %q

[template]
path = %q

[export]
output_dir = %q

[log]
file = ""
`, filepath.Join(dir, "mappings.db"), f.template, filepath.Join(dir, "out"))
	require.NoError(t, os.WriteFile(f.configPath, []byte(config), 0644))

	return f
}

func execute(t *testing.T, f fixture, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := NewRootCommand("test", "none", "unknown")
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", f.configPath}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func TestRunExportsAndSaves(t *testing.T) {
	f := newFixture(t)
	output := filepath.Join(f.dir, "result.xlsx")

	out, err := execute(t, f, "run", "--source", f.source, "--vendor", "나이키", "--out", output, "--save")
	require.NoError(t, err)

	assert.Contains(t, out, "No stored mapping")
	assert.Contains(t, out, "2 auto-matched")
	assert.Contains(t, out, "Memo[필수]: 2 empty required cells")
	assert.Contains(t, out, `Saved mapping for "나이키"`)

	wb, err := excelize.OpenFile(output)
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows("Sheet1")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"SKU[필수]", "Price", "Memo[필수]"}, rows[0])
	assert.Equal(t, "A1", rows[1][0])

	out, err = execute(t, f, "vendors")
	require.NoError(t, err)
	assert.Equal(t, "나이키\n", out)

	out, err = execute(t, f, "mapping", "show", "나이키")
	require.NoError(t, err)
	assert.Contains(t, out, `"SKU[필수]":{"val":"sku_code","fmt":"General"}`)

	out, err = execute(t, f, "run", "--source", f.source, "--vendor", "나이키", "--out", output)
	require.NoError(t, err)
	assert.Contains(t, out, "2 stored")
}

func TestRunStrictFailsOnMissingRequired(t *testing.T) {
	f := newFixture(t)

	_, err := execute(t, f, "run", "--source", f.source, "--vendor", "아디다스", "--strict")
	assert.ErrorIs(t, err, ErrValidation)

	entries, err := os.ReadDir(filepath.Join(f.dir, "out"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "아디다스_2건.xlsx", entries[0].Name())
}

func TestRunWithoutStoreStillExports(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(f.configPath, []byte(fmt.Sprintf(`
[store]
backend = "postgres"
dsn = ""

[template]
path = %q
`, f.template)), 0644))

	output := filepath.Join(f.dir, "offline.xlsx")

	out, err := execute(t, f, "run", "--source", f.source, "--vendor", "나이키", "--out", output)
	require.NoError(t, err)
	assert.Contains(t, out, "mapping store unavailable")
	assert.Contains(t, out, "2 auto-matched")

	_, err = os.Stat(output)
	require.NoError(t, err)

	saved := filepath.Join(f.dir, "offline-save.xlsx")
	_, err = execute(t, f, "run", "--source", f.source, "--vendor", "나이키", "--out", saved, "--save")
	assert.ErrorIs(t, err, store.ErrStoreUnavailable)

	_, err = os.Stat(saved)
	assert.NoError(t, err, "export is written before the save fails")
}

func TestMappingShowUnknownVendor(t *testing.T) {
	f := newFixture(t)

	_, err := execute(t, f, "mapping", "show", "푸마")
	assert.Error(t, err)
}

func TestTemplateSet(t *testing.T) {
	f := newFixture(t)

	next := filepath.Join(f.dir, "market.csv")
	require.NoError(t, os.WriteFile(next, []byte("상품코드[필수],판매가\n"), 0644))

	_, err := execute(t, f, "template", "set", next)
	require.NoError(t, err)

	got, err := os.ReadFile(f.template)
	require.NoError(t, err)
	assert.Equal(t, "상품코드[필수],판매가\n", string(got))
}
