// Package inkscape shells out to the Inkscape binary to convert chart PDFs
// into plain SVG trees.
//
// Requires Inkscape 1.x: brew install inkscape (macOS), apt install inkscape
// (Linux).
package inkscape

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/ekglab/ekgstore/pkg/errors"
)

// DefaultTimeout bounds one conversion. Inkscape start-up dominates the
// cost, so the first call of a process is the slowest.
const DefaultTimeout = 30 * time.Second

// Converter runs PDF to SVG conversions through one Inkscape binary.
type Converter struct {
	// Binary is the executable name or path. Defaults to "inkscape".
	Binary string

	// Timeout bounds each call. Zero means DefaultTimeout.
	Timeout time.Duration
}

// New returns a Converter for the given binary, or the default binary when
// empty.
func New(binary string, timeout time.Duration) *Converter {
	if binary == "" {
		binary = "inkscape"
	}
	return &Converter{Binary: binary, Timeout: timeout}
}

// Version reports the Inkscape version string, confirming the binary is
// installed and runnable.
func (c *Converter) Version(ctx context.Context) (string, error) {
	out, err := c.run(ctx, "--version")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// Convert renders the PDF at src into a plain SVG file at dst.
func (c *Converter) Convert(ctx context.Context, src, dst string) error {
	_, err := c.run(ctx, c.args(src, dst)...)
	return err
}

// args builds the conversion argument list.
func (c *Converter) args(src, dst string) []string {
	return []string{
		"--export-plain-svg",
		"--export-filename=" + dst,
		"--pdf-poppler",
		src,
	}
}

// run executes the binary with a bounded context and maps every failure mode
// onto CONVERSION_FAILED.
func (c *Converter) run(ctx context.Context, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(c.Binary); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConversion, err,
			"converter binary %q not found. Install with:\n  macOS:  brew install inkscape\n  Linux:  apt install inkscape", c.Binary)
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.Binary, args...)

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.Wrap(errors.ErrCodeConversion, ctx.Err(),
				"%s timed out after %s", c.Binary, timeout)
		}
		return nil, errors.Wrap(errors.ErrCodeConversion, err,
			"%s: %s", c.Binary, strings.TrimSpace(errBuf.String()))
	}
	return out.Bytes(), nil
}
