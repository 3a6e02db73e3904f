package cli

import (
	"fmt"

	"github.com/nconklindev/bulkmap/internal/converter"
	"github.com/nconklindev/bulkmap/internal/mapping"
	"github.com/nconklindev/bulkmap/internal/templates"

	"github.com/spf13/cobra"
)

func (a *app) newVendorsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "vendors",
		Short: "List vendors with a stored mapping",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			vendors, err := st.ListVendors(cmd.Context())
			if err != nil {
				return err
			}
			for _, v := range vendors {
				fmt.Fprintln(cmd.OutOrStdout(), v)
			}
			return nil
		},
	}
}

func (a *app) newMappingCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mapping",
		Short: "Inspect stored vendor mappings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show <vendor>",
		Short: "Print a vendor's stored mapping as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			cfg, found, err := st.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("no stored mapping for %q", args[0])
			}

			data, err := mapping.EncodeConfig(cfg)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	})

	return cmd
}

func (a *app) newTemplateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Manage the default target template",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <file>",
		Short: "Install a file as the default target template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := converter.ReadOptions{CSVEncoding: a.cfg.Input.CSVEncoding}
			if err := templates.Install(args[0], a.cfg.Template.Path, opts); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Installed %s as %s\n", args[0], a.cfg.Template.Path)
			return nil
		},
	})

	return cmd
}
