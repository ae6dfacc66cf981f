package cli

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ekglab/ekgstore/pkg/errors"
	"github.com/ekglab/ekgstore/pkg/export"
	"github.com/ekglab/ekgstore/pkg/pipeline"
)

// extractOpts holds the command-line flags for the extract command.
type extractOpts struct {
	output  string // output directory override
	refresh bool   // bypass the conversion cache
	noCache bool   // disable the conversion cache entirely
	mongo   bool   // also store results in the configured MongoDB
}

// newExtractCmd creates the extract command, the main entry point of the
// tool. It accepts any mix of files and glob patterns and processes each
// match independently: a failing chart is reported and skipped, never
// aborting the batch.
func newExtractCmd(configPath *string) *cobra.Command {
	var opts extractOpts

	cmd := &cobra.Command{
		Use:   "extract [files...]",
		Short: "Extract waveforms and metadata from ECG charts",
		Long: `Extract converts each input chart (PDF or SVG), reconstructs the waveform
of every lead in physical units, and writes per-chart CSV and annotation
files. Arguments may be files or glob patterns ("scans/*.pdf").`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd.Context(), args, *configPath, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output directory (default from config)")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "reconvert even when the cache has an entry")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the conversion cache")
	cmd.Flags().BoolVar(&opts.mongo, "mongo", false, "also store results in the configured MongoDB")

	return cmd
}

func runExtract(ctx context.Context, patterns []string, cfgPath string, opts *extractOpts) error {
	logger := loggerFromContext(ctx)

	inputs, err := expandInputs(patterns)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "no input files match %v", patterns)
	}

	runner, conv, cfg, err := newRunner(cfgPath, opts.noCache, logger)
	if err != nil {
		return err
	}
	defer runner.Close()

	outDir := opts.output
	if outDir == "" {
		outDir = cfg.Output.Dir
	}
	writer := export.Writer{Dir: outDir}

	var sink *export.MongoSink
	if opts.mongo {
		if cfg.Export.MongoURI == "" {
			return errors.New(errors.ErrCodeInvalidInput, "--mongo requires export.mongo_uri in the config")
		}
		sink, err = export.NewMongoSink(ctx, cfg.Export.MongoURI, cfg.Export.MongoDatabase, cfg.Export.MongoCollection)
		if err != nil {
			return err
		}
		defer sink.Close(ctx)
	}

	// The first conversion of a batch pays the Inkscape start-up cost on top
	// of the per-page work, so it gets three times the configured budget.
	// SVG inputs and cache hits don't launch the binary and don't consume it.
	baseTimeout := conv.Timeout
	conv.Timeout = 3 * baseTimeout
	warmedUp := false

	prog := newProgress(logger)
	report := export.Report{RunID: uuid.NewString(), StartedAt: time.Now()}
	succeeded := 0

	for _, input := range inputs {
		if err := ctx.Err(); err != nil {
			return err
		}

		spin := newSpinnerWithContext(ctx, "Processing "+filepath.Base(input))
		spin.Start()
		res, err := runner.Execute(ctx, pipeline.Options{
			Input:   input,
			Refresh: opts.refresh,
			Logger:  logger,
		})
		spin.Stop()
		if !warmedUp && converterRan(input, res, err) {
			conv.Timeout = baseTimeout
			warmedUp = true
		}

		if err == nil {
			err = writeResult(ctx, writer, sink, input, res)
		}
		if err != nil {
			logger.Error("extraction failed", "input", input, "code", errors.GetCode(err))
			printError("%s: %s", input, errors.UserMessage(err))
			report.Charts = append(report.Charts, export.ReportEntry{
				Input:  input,
				Status: export.StatusFailed,
				Code:   string(errors.GetCode(err)),
				Error:  err.Error(),
			})
			continue
		}

		printStats(res.Stats.LeadCount, res.Stats.SampleCount, res.CacheInfo.ConvertHit)
		report.Charts = append(report.Charts, export.ReportEntry{
			Input:   input,
			Status:  export.StatusOK,
			Leads:   res.Stats.LeadCount,
			Samples: res.Stats.SampleCount,
			Cached:  res.CacheInfo.ConvertHit,
		})
		succeeded++
	}

	report.FinishedAt = time.Now()
	if path, err := writer.WriteReport(report); err != nil {
		logger.Error("run report not written", "code", errors.GetCode(err))
	} else {
		printFile(path)
	}

	printNewline()
	prog.done(fmt.Sprintf("Extracted %d of %d charts", succeeded, len(inputs)))

	if succeeded == 0 {
		return errors.New(errors.ErrCodeInternal, "all %d charts failed", len(inputs))
	}
	if succeeded < len(inputs) {
		printWarning("%d charts failed", len(inputs)-succeeded)
	}
	return nil
}

// writeResult writes the CSV and annotation files for one chart and, when a
// sink is configured, stores the result document.
func writeResult(ctx context.Context, writer export.Writer, sink *export.MongoSink, input string, res *pipeline.Result) error {
	base := export.BaseName(input, res.Extraction.Meta["ID"])

	csvPath, err := writer.WriteCSV(base, res.Extraction)
	if err != nil {
		return err
	}
	annPath, err := writer.WriteAnnotations(base, res.Extraction.Meta)
	if err != nil {
		return err
	}

	if sink != nil {
		if err := sink.Store(ctx, input, res.Extraction); err != nil {
			return err
		}
	}

	printSuccess("%s", input)
	printFile(csvPath)
	printFile(annPath)
	return nil
}

// expandInputs resolves glob patterns into a deduplicated file list in
// argument order. Directories are walked for charts. A literal path without
// matches is kept as-is; the per-file loop reports it as FILE_NOT_FOUND
// without aborting the batch.
func expandInputs(patterns []string) ([]string, error) {
	var inputs []string
	seen := make(map[string]bool)
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			inputs = append(inputs, path)
		}
	}

	for _, p := range patterns {
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "bad pattern %q", p)
		}
		if len(matches) == 0 {
			matches = []string{p}
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil || !info.IsDir() {
				add(m)
				continue
			}
			err = filepath.WalkDir(m, func(path string, d fs.DirEntry, err error) error {
				if err != nil || d.IsDir() {
					return err
				}
				if isChart(path) {
					add(path)
				}
				return nil
			})
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "walk %s", m)
			}
		}
	}
	return inputs, nil
}

// converterRan reports whether processing input actually launched the
// converter binary, warming it up for the rest of the batch. SVG inputs skip
// conversion entirely and cache hits never leave the cache.
func converterRan(input string, res *pipeline.Result, err error) bool {
	if strings.ToLower(filepath.Ext(input)) != ".pdf" {
		return false
	}
	if err != nil {
		return errors.Is(err, errors.ErrCodeConversion)
	}
	return !res.CacheInfo.ConvertHit
}

// isChart reports whether the file extension is one the pipeline accepts.
func isChart(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".svg":
		return true
	}
	return false
}
