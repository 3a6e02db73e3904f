package converter

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/nconklindev/bulkmap/internal/mapping"
	"github.com/nconklindev/bulkmap/internal/types"

	"github.com/google/uuid"
)

// Job is one resolve-then-transform-then-export request.
type Job struct {
	Vendor     string
	Targets    []string
	Source     *types.Table
	SourceFile string
	Mapping    *mapping.Config
	OutputFile string
	Export     ExportOptions
}

// Convert transforms the job's source table and writes the workbook.
// Validation errors are advisory: the file is written regardless and the
// errors are returned in the result.
func Convert(job Job, progressChan chan<- float64) (*types.ExportResult, error) {
	if job.Source == nil {
		return nil, fmt.Errorf("no source table")
	}

	runID := uuid.NewString()

	res, validation := Transform(job.Targets, job.Source, job.Mapping)

	outputFile := job.OutputFile
	if outputFile == "" {
		outputFile = SuggestFilename(job.Vendor, res.RowCount())
	}

	if dir := filepath.Dir(outputFile); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}

	if err := ExportFile(outputFile, res, job.Export, progressChan); err != nil {
		return nil, fmt.Errorf("export %s: %w", outputFile, err)
	}

	log.Printf("run %s: vendor=%q rows=%d mapped=%d/%d output=%s", runID, job.Vendor, res.RowCount(), job.Mapping.Len(), len(job.Targets), outputFile)
	for _, v := range validation {
		log.Printf("run %s: required column %q missing %d value(s)", runID, v.Column, v.MissingCount)
	}

	return &types.ExportResult{
		RunID:         runID,
		Vendor:        job.Vendor,
		SourceFile:    job.SourceFile,
		OutputFile:    outputFile,
		RowsProcessed: res.RowCount(),
		Validation:    validation,
	}, nil
}
