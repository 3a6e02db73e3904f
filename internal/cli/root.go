// Package cli wires the bulkmap commands: the interactive console and the
// batch run, vendors, mapping and template commands.
package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/nconklindev/bulkmap/internal/config"
	"github.com/nconklindev/bulkmap/internal/store"
	"github.com/nconklindev/bulkmap/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

type app struct {
	configPath string
	cfg        *config.AppConfig
}

// Execute runs the root command and exits non-zero on failure.
func Execute(version, commit, date string) {
	if err := NewRootCommand(version, commit, date).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func NewRootCommand(version, commit, date string) *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "bulkmap",
		Short:         "Map vendor spreadsheets onto a marketplace upload template",
		Version:       fmt.Sprintf("%s\ncommit: %s\nbuilt: %s", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return fmt.Errorf("load config %s: %w", a.configPath, err)
			}
			a.cfg = cfg
			return nil
		},
		RunE: a.runConsole,
	}
	root.SetVersionTemplate("bulkmap {{.Version}}\n")
	root.PersistentFlags().StringVar(&a.configPath, "config", config.DefaultPath(), "path to bulkmap.toml")

	root.AddCommand(
		a.newRunCommand(),
		a.newVendorsCommand(),
		a.newMappingCommand(),
		a.newTemplateCommand(),
	)

	return root
}

// openStore wraps the configured backend in a Session.
func (a *app) openStore(ctx context.Context) (*store.Session, error) {
	st, err := store.Open(ctx, a.cfg.StoreOptions())
	if err != nil {
		return nil, err
	}
	log.Printf("mapping store opened: backend=%s", a.cfg.Store.Backend)
	return store.NewSession(st), nil
}

func (a *app) runConsole(cmd *cobra.Command, args []string) error {
	if a.cfg.Log.File != "" {
		f, err := tea.LogToFile(a.cfg.Log.File, "bulkmap")
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
	}

	var st store.Store
	session, storeErr := a.openStore(cmd.Context())
	if storeErr != nil {
		log.Printf("open mapping store: %v", storeErr)
	} else {
		st = session
		defer session.Close()
	}

	p := tea.NewProgram(ui.InitialModel(a.cfg, st, storeErr), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
