// Package pipeline provides the core extraction pipeline.
//
// This package implements the complete convert → extract flow used by the
// CLI. By centralizing this logic, batch runs, single-file runs and tests
// all share the same caching and error behavior.
//
// # Architecture
//
// The pipeline consists of two stages:
//
//  1. Convert: Turn the source PDF into a plain SVG tree, via the cache when
//     the same content was converted before
//  2. Extract: Classify metadata, locate waveforms and scale them to
//     physical units
//
// SVG input skips the convert stage entirely.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, converter, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{Input: "chart1.pdf"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	leads := result.Extraction.Leads
package pipeline

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ekglab/ekgstore/pkg/errors"
	"github.com/ekglab/ekgstore/pkg/extract"
)

// Converter turns the PDF at src into a plain SVG file at dst.
// *inkscape.Converter is the production implementation.
type Converter interface {
	Convert(ctx context.Context, src, dst string) error
}

// Input extensions the pipeline accepts.
const (
	extPDF = ".pdf"
	extSVG = ".svg"
)

// Options contains all configuration for one pipeline run.
type Options struct {
	// Input is the source chart, a PDF or an already converted SVG.
	Input string

	// Refresh bypasses the conversion cache and overwrites the entry.
	Refresh bool

	// Logger overrides the runner's logger for this run.
	Logger *log.Logger
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID uniquely identifies this run in logs and reports.
	RunID string

	// SVG is the converted document tree as bytes.
	SVG []byte

	// Extraction is the full extraction output.
	Extraction *extract.Result

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks whether conversion hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	LeadCount   int
	SampleCount int
	ConvertTime time.Duration
	ExtractTime time.Duration
}

// CacheInfo tracks cache hits for the convert stage.
type CacheInfo struct {
	ConvertHit bool // Whether the converted document came from cache
}

// ValidateAndSetDefaults checks required fields and applies defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Input == "" {
		return errors.New(errors.ErrCodeInvalidInput, "input file is required")
	}
	switch ext := strings.ToLower(filepath.Ext(o.Input)); ext {
	case extPDF, extSVG:
	default:
		return errors.New(errors.ErrCodeInvalidInput,
			"unsupported input %s (want %s or %s)", o.Input, extPDF, extSVG)
	}
	return nil
}

// needsConversion reports whether the input must pass the convert stage.
func (o *Options) needsConversion() bool {
	return strings.ToLower(filepath.Ext(o.Input)) == extPDF
}
