package templates

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nconklindev/bulkmap/internal/converter"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocate(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "default.csv")
	require.NoError(t, os.WriteFile(existing, []byte("SKU[필수],Price\n"), 0644))

	tests := []struct {
		name        string
		upload      string
		defaultPath string
		want        string
		wantErr     bool
	}{
		{"upload wins", "upload.xlsx", existing, "upload.xlsx", false},
		{"default when no upload", "", existing, existing, false},
		{"missing default", "", filepath.Join(dir, "nope.xlsx"), "", true},
		{"no default configured", "", "", "", true},
		{"default is a directory", "", dir, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Locate(tt.upload, tt.defaultPath)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoTemplate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInstall(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "market.csv")
	dst := filepath.Join(dir, "templates", "default.csv")

	require.NoError(t, os.WriteFile(src, []byte("SKU[필수],Price\n"), 0644))
	require.NoError(t, Install(src, dst, converter.ReadOptions{}))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "SKU[필수],Price\n", string(got))

	require.NoError(t, os.WriteFile(src, []byte("SKU[필수],Price,Stock\n"), 0644))
	require.NoError(t, Install(src, dst, converter.ReadOptions{}))

	data, err := converter.ReadTable(dst, converter.ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"SKU[필수]", "Price", "Stock"}, data.Headers)
}

func TestInstallRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "default.xlsx")

	empty := filepath.Join(dir, "empty.xlsx")
	require.NoError(t, os.WriteFile(empty, []byte("garbage"), 0644))
	assert.ErrorIs(t, Install(empty, dst, converter.ReadOptions{}), converter.ErrIngestion)

	wrongExt := filepath.Join(dir, "market.csv")
	require.NoError(t, os.WriteFile(wrongExt, []byte("a,b\n"), 0644))
	assert.Error(t, Install(wrongExt, dst, converter.ReadOptions{}))

	_, err := os.Stat(dst)
	assert.True(t, os.IsNotExist(err))
}
