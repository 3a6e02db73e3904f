package templates

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nconklindev/bulkmap/internal/converter"
)

// ErrNoTemplate means neither an upload nor the default template is available.
var ErrNoTemplate = errors.New("no target template: upload one or install a default")

// Locate picks the target template: the explicit upload when given,
// otherwise the default path when it exists.
func Locate(upload, defaultPath string) (string, error) {
	if upload != "" {
		return upload, nil
	}

	if defaultPath == "" {
		return "", ErrNoTemplate
	}

	info, err := os.Stat(defaultPath)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w (looked for %s)", ErrNoTemplate, defaultPath)
	}
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrNoTemplate, defaultPath)
	}

	return defaultPath, nil
}

// Install replaces the default template with src after checking that src
// decodes as a table with a header row. The default keeps its own
// extension, so src must share it.
func Install(src, defaultPath string, opts converter.ReadOptions) error {
	if !strings.EqualFold(filepath.Ext(src), filepath.Ext(defaultPath)) {
		return fmt.Errorf("template %s must be a %s file", filepath.Base(src), filepath.Ext(defaultPath))
	}

	data, err := converter.ReadTable(src, opts)
	if err != nil {
		return err
	}
	if len(data.Headers) == 0 {
		return fmt.Errorf("%w: template has no header row", converter.ErrIngestion)
	}

	if err := os.MkdirAll(filepath.Dir(defaultPath), 0755); err != nil {
		return fmt.Errorf("create template directory: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(defaultPath), ".template-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), defaultPath)
}
