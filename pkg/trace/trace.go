// Package trace decodes relative-movement path expressions into absolute
// coordinate sequences.
//
// A path expression is the "d" attribute of a plotted SVG path: a leading
// relative move ("m x,y") followed by whitespace-separated "dx,dy" step
// pairs. Only the leading pair is absolute; every later pair is a delta from
// the previous point.
//
// When decoding a waveform, the caller supplies the anchor points of the
// page's calibration markers. Each axis independently picks the anchor
// closest to the path's centerline and the trace is rebased onto it, which
// assigns the waveform to the correct physical strip even when several
// strips share a page.
package trace

import (
	"strconv"
	"strings"

	"github.com/ekglab/ekgstore/pkg/errors"
)

// Point is a 2-D coordinate in document space.
type Point struct {
	X float64
	Y float64
}

// Trace is a decoded absolute coordinate sequence. X and Y always have the
// same length: one entry per step pair of the source expression. A Trace is
// never mutated after Decode returns it.
type Trace struct {
	X []float64
	Y []float64
}

// Len returns the number of sample points.
func (t Trace) Len() int { return len(t.X) }

// Decode converts one path expression into a Trace.
//
// Without offsets the leading pair counts as the first step and the trace is
// the plain cumulative sum from the origin. This form is used for the
// calibration markers themselves.
//
// With offsets, each axis selects the candidate anchor whose value is
// numerically closest to the axis centerline (the mean of the running
// cumulative sum, taking the leading pair at its literal value). The leading
// step is then replaced by the difference between its literal value and the
// chosen anchor. Ties go to the first candidate in ascending
// absolute-difference order. Selection uses the whole-path centerline, so a
// single large intra-path jump cannot flip the assignment.
//
// A missing relative-move prefix or an unparseable step pair is a contract
// violation and returns a MALFORMED_PATH error.
func Decode(path string, offsets []Point) (Trace, error) {
	xs, ys, err := steps(path)
	if err != nil {
		return Trace{}, err
	}

	if len(offsets) > 0 {
		xs[0] -= nearest(centerline(xs), offsets, func(p Point) float64 { return p.X })
		ys[0] -= nearest(centerline(ys), offsets, func(p Point) float64 { return p.Y })
	}

	return Trace{X: cumsum(xs), Y: cumsum(ys)}, nil
}

// steps parses the expression into per-axis delta sequences. The leading
// move pair is kept at its literal value in position 0.
func steps(path string) ([]float64, []float64, error) {
	if !strings.HasPrefix(path, "m ") {
		return nil, nil, errors.New(errors.ErrCodeMalformedPath,
			"path %q does not start with a relative move", clip(path))
	}

	fields := strings.Fields(path[2:])
	if len(fields) == 0 {
		return nil, nil, errors.New(errors.ErrCodeMalformedPath,
			"path %q has no step pairs", clip(path))
	}

	xs := make([]float64, len(fields))
	ys := make([]float64, len(fields))
	for i, f := range fields {
		dx, dy, ok := strings.Cut(f, ",")
		if !ok {
			return nil, nil, errors.New(errors.ErrCodeMalformedPath,
				"step %d (%q) is not an x,y pair", i, f)
		}
		var err error
		if xs[i], err = strconv.ParseFloat(dx, 64); err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeMalformedPath, err, "step %d x", i)
		}
		if ys[i], err = strconv.ParseFloat(dy, 64); err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeMalformedPath, err, "step %d y", i)
		}
	}
	return xs, ys, nil
}

// centerline returns the mean of the running cumulative sum of the deltas,
// an approximation of where the path sits on this axis.
func centerline(deltas []float64) float64 {
	var run, total float64
	for _, d := range deltas {
		run += d
		total += run
	}
	return total / float64(len(deltas))
}

// nearest returns the axis value of the candidate closest to target.
// The first candidate wins ties.
func nearest(target float64, candidates []Point, axis func(Point) float64) float64 {
	best := axis(candidates[0])
	bestDiff := abs(target - best)
	for _, c := range candidates[1:] {
		v := axis(c)
		if d := abs(target - v); d < bestDiff {
			best, bestDiff = v, d
		}
	}
	return best
}

func cumsum(deltas []float64) []float64 {
	out := make([]float64, len(deltas))
	var run float64
	for i, d := range deltas {
		run += d
		out[i] = run
	}
	return out
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// clip shortens long expressions for error messages.
func clip(s string) string {
	if len(s) > 32 {
		return s[:32] + "…"
	}
	return s
}
