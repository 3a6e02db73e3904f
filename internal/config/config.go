package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/nconklindev/bulkmap/internal/store"

	"github.com/pelletier/go-toml/v2"
)

const FileName = "bulkmap.toml"

// AppConfig is the bulkmap.toml layout.
type AppConfig struct {
	Store    StoreConfig    `toml:"store"`
	Template TemplateConfig `toml:"template"`
	Input    InputConfig    `toml:"input"`
	Export   ExportConfig   `toml:"export"`
	Log      LogConfig      `toml:"log"`
}

type StoreConfig struct {
	Backend string `toml:"backend"` // sheet, sqlite, postgres, mysql
	Path    string `toml:"path"`
	DSN     string `toml:"dsn"`
}

type TemplateConfig struct {
	Path string `toml:"path"`
}

type InputConfig struct {
	CSVEncoding string `toml:"csv_encoding"` // auto, utf-8, cp949
}

type ExportConfig struct {
	SheetName   string  `toml:"sheet_name"`
	MaxColWidth float64 `toml:"max_col_width"`
	OutputDir   string  `toml:"output_dir"`
}

type LogConfig struct {
	File string `toml:"file"`
}

func DefaultConfig() *AppConfig {
	return &AppConfig{
		Store: StoreConfig{
			Backend: store.BackendSheet,
			Path:    filepath.Join("data", "mappings.xlsx"),
		},
		Template: TemplateConfig{
			Path: filepath.Join("templates", "default.xlsx"),
		},
		Input: InputConfig{
			CSVEncoding: "auto",
		},
		Export: ExportConfig{
			SheetName:   "Sheet1",
			MaxColWidth: 50,
			OutputDir:   ".",
		},
		Log: LogConfig{
			File: "bulkmap.log",
		},
	}
}

// DefaultPath returns bulkmap.toml next to the executable, or in the
// working directory when the executable cannot be located.
func DefaultPath() string {
	exe, err := os.Executable()
	if err != nil {
		return FileName
	}
	return filepath.Join(filepath.Dir(exe), FileName)
}

// Load reads the config at path. A missing file yields the defaults.
// Environment variables override file values.
func Load(path string) (*AppConfig, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)

	return cfg, nil
}

func applyEnv(cfg *AppConfig) {
	if v := os.Getenv("BULKMAP_STORE_BACKEND"); v != "" {
		cfg.Store.Backend = v
	}
	if v := os.Getenv("BULKMAP_STORE_DSN"); v != "" {
		cfg.Store.DSN = v
	}
	if v := os.Getenv("BULKMAP_TEMPLATE_PATH"); v != "" {
		cfg.Template.Path = v
	}
}

// Save writes cfg to path.
func Save(cfg *AppConfig, path string) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// StoreOptions converts the [store] section for store.Open.
func (c *AppConfig) StoreOptions() store.Options {
	return store.Options{
		Backend: c.Store.Backend,
		Path:    c.Store.Path,
		DSN:     c.Store.DSN,
	}
}
