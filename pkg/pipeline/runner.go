package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/ekglab/ekgstore/pkg/cache"
	"github.com/ekglab/ekgstore/pkg/errors"
	"github.com/ekglab/ekgstore/pkg/extract"
	"github.com/ekglab/ekgstore/pkg/observability"
	"github.com/ekglab/ekgstore/pkg/svgdoc"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache, converter and logger - it
// doesn't store results. Multiple goroutines can safely use the same Runner
// with different options.
type Runner struct {
	Cache     cache.Cache
	Converter Converter
	Logger    *log.Logger
}

// NewRunner creates a runner with the given cache and converter.
// If c is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, conv Converter, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:     c,
		Converter: conv,
		Logger:    logger,
	}
}

// Execute runs the complete convert → extract pipeline for one input file.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	logger := r.logger(opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{RunID: uuid.NewString()}

	convertStart := time.Now()
	observability.Pipeline().OnConvertStart(ctx, opts.Input)
	svg, hit, err := r.ConvertWithCacheInfo(ctx, opts)
	observability.Pipeline().OnConvertComplete(ctx, opts.Input, hit, time.Since(convertStart), err)
	if err != nil {
		return nil, err
	}
	result.SVG = svg
	result.Stats.ConvertTime = time.Since(convertStart)
	result.CacheInfo.ConvertHit = hit

	logger.Info("converted document",
		"input", opts.Input,
		"bytes", len(svg),
		"cached", hit,
		"duration", result.Stats.ConvertTime)

	extractStart := time.Now()
	observability.Pipeline().OnExtractStart(ctx, opts.Input)
	extraction, err := r.extract(svg)
	observability.Pipeline().OnExtractComplete(ctx, opts.Input, leadCount(extraction), time.Since(extractStart), err)
	if err != nil {
		return nil, err
	}
	result.Extraction = extraction
	result.Stats.ExtractTime = time.Since(extractStart)
	result.Stats.LeadCount = len(extraction.Leads)
	for _, lead := range extraction.Leads {
		result.Stats.SampleCount += len(lead.ActualX)
	}

	logger.Info("extracted waveforms",
		"leads", result.Stats.LeadCount,
		"samples", result.Stats.SampleCount,
		"duration", result.Stats.ExtractTime)

	return result, nil
}

// ConvertWithCacheInfo produces the SVG bytes for the input, via the cache
// when possible, and reports whether the cache was hit.
//
// SVG inputs are read as-is and never cached. PDF inputs are keyed by
// content hash, so a renamed or copied file still hits.
func (r *Runner) ConvertWithCacheInfo(ctx context.Context, opts Options) ([]byte, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	if _, err := os.Stat(opts.Input); err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeFileNotFound, err, "input %s", opts.Input)
	}

	if !opts.needsConversion() {
		data, err := os.ReadFile(opts.Input)
		if err != nil {
			return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "read %s", opts.Input)
		}
		return data, false, nil
	}

	hash, err := cache.HashFile(opts.Input)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "hash %s", opts.Input)
	}
	key := cache.DocumentKey(hash)

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, key)
			return data, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, key)
	}

	data, err := r.convert(ctx, opts.Input)
	if err != nil {
		return nil, false, err
	}

	if err := r.Cache.Set(ctx, key, data, cache.TTLDocument); err == nil {
		observability.Cache().OnCacheSet(ctx, key, len(data))
	}

	return data, false, nil
}

// extract parses the SVG bytes and builds the extraction result.
func (r *Runner) extract(svg []byte) (*extract.Result, error) {
	doc, err := svgdoc.Parse(bytes.NewReader(svg))
	if err != nil {
		return nil, err
	}
	return extract.Build(doc)
}

// leadCount tolerates a nil result so hook calls stay unconditional.
func leadCount(res *extract.Result) int {
	if res == nil {
		return 0
	}
	return len(res.Leads)
}

// Convert is a convenience wrapper that discards the cache hit info.
func (r *Runner) Convert(ctx context.Context, opts Options) ([]byte, error) {
	data, _, err := r.ConvertWithCacheInfo(ctx, opts)
	return data, err
}

// convert runs the external converter into a scratch file and reads it back.
func (r *Runner) convert(ctx context.Context, src string) ([]byte, error) {
	if r.Converter == nil {
		return nil, errors.New(errors.ErrCodeConversion, "no converter configured")
	}

	dir, err := os.MkdirTemp("", "ekgstore-convert-")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create scratch dir")
	}
	defer os.RemoveAll(dir)

	dst := filepath.Join(dir, "out.svg")
	if err := r.Converter.Convert(ctx, src, dst); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConversion, err,
			"converter produced no output for %s", src)
	}
	return data, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// logger returns the per-run logger, falling back to the runner's.
func (r *Runner) logger(opts Options) *log.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return r.Logger
}
