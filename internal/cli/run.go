package cli

import (
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"

	"github.com/nconklindev/bulkmap/internal/converter"
	"github.com/nconklindev/bulkmap/internal/mapping"
	"github.com/nconklindev/bulkmap/internal/templates"
	"github.com/nconklindev/bulkmap/internal/types"

	"github.com/spf13/cobra"
)

// ErrValidation is returned by run --strict when required columns have empty cells.
var ErrValidation = errors.New("required columns have empty cells")

type runFlags struct {
	source string
	target string
	vendor string
	out    string
	save   bool
	strict bool
}

func (a *app) newRunCommand() *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Transform a vendor file with its stored mapping and export the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, f)
		},
	}

	cmd.Flags().StringVarP(&f.source, "source", "s", "", "vendor source file (csv or xlsx)")
	cmd.Flags().StringVarP(&f.target, "target", "t", "", "target template (defaults to the installed template)")
	cmd.Flags().StringVar(&f.vendor, "vendor", "", "vendor name used as the mapping key")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "output workbook (defaults to <vendor>_<rows>건.xlsx)")
	cmd.Flags().BoolVar(&f.save, "save", false, "store the resolved mapping for the vendor")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "fail when required columns have empty cells")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("vendor")

	return cmd
}

func (a *app) run(cmd *cobra.Command, f runFlags) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	opts := converter.ReadOptions{CSVEncoding: a.cfg.Input.CSVEncoding}

	targetPath, err := templates.Locate(f.target, a.cfg.Template.Path)
	if err != nil {
		return err
	}

	target, err := converter.ReadTable(targetPath, opts)
	if err != nil {
		return fmt.Errorf("target %s: %w", targetPath, err)
	}
	source, err := converter.ReadTable(f.source, opts)
	if err != nil {
		return fmt.Errorf("source %s: %w", f.source, err)
	}

	// store failures fall back to auto-match; only --save needs the store
	var persisted *mapping.Config

	st, storeErr := a.openStore(ctx)
	if storeErr == nil {
		defer st.Close()

		var found bool
		persisted, found, storeErr = st.Load(ctx, f.vendor)
		if storeErr == nil && !found {
			fmt.Fprintf(out, "No stored mapping for %q, using auto-match\n", f.vendor)
		}
	}
	if storeErr != nil {
		log.Printf("mapping store: %v", storeErr)
		fmt.Fprintf(out, "Warning: mapping store unavailable, using auto-match: %v\n", storeErr)
		persisted = nil
	}

	res := mapping.ResolveAll(f.vendor, target.Headers, persisted, source.Headers)
	printResolution(out, target.Headers, res)

	outputFile := f.out
	if outputFile == "" {
		outputFile = filepath.Join(a.cfg.Export.OutputDir, converter.SuggestFilename(f.vendor, source.RowCount()))
	}

	result, err := converter.Convert(converter.Job{
		Vendor:     f.vendor,
		Targets:    target.Headers,
		Source:     source,
		SourceFile: f.source,
		Mapping:    res.Config,
		OutputFile: outputFile,
		Export: converter.ExportOptions{
			SheetName:   a.cfg.Export.SheetName,
			MaxColWidth: a.cfg.Export.MaxColWidth,
		},
	}, nil)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Wrote %d rows to %s\n", result.RowsProcessed, result.OutputFile)
	printValidation(out, result.Validation)

	if f.save {
		if st == nil {
			return fmt.Errorf("save mapping for %q: %w", f.vendor, storeErr)
		}
		if err := st.Save(ctx, f.vendor, res.Config); err != nil {
			return err
		}
		log.Printf("saved mapping for %q", f.vendor)
		fmt.Fprintf(out, "Saved mapping for %q\n", f.vendor)
	}

	if f.strict && len(result.Validation) > 0 {
		return ErrValidation
	}
	return nil
}

func printResolution(w io.Writer, targets []string, res *mapping.Resolution) {
	for _, t := range targets {
		e := res.Config.Get(t)
		marker := " "
		if mapping.IsRequired(t) {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %-30s %-40s %s\n", marker, mapping.DisplayLabel(t), e, res.Provenance[t])
	}
	fmt.Fprintf(w, "%d stored, %d auto-matched, %d unmapped\n",
		res.Count(mapping.FromStore), res.Count(mapping.AutoMatched), res.Count(mapping.NoMatch))
}

func printValidation(w io.Writer, errs []types.ValidationError) {
	if len(errs) == 0 {
		fmt.Fprintln(w, "Integrity check passed")
		return
	}
	for _, v := range errs {
		fmt.Fprintf(w, "%s: %d empty required cells\n", mapping.DisplayLabel(v.Column), v.MissingCount)
	}
}
