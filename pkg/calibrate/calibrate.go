// Package calibrate derives page anchors and physical unit scales from
// calibration markers.
//
// Every ECG strip on a printed chart carries a fixed-geometry reference pulse
// at its left edge. The pulse spans exactly 5 physical x-units across and 10
// physical y-units tall, which lets us convert the page's pixel space into
// physical units without trusting anything else on the page.
package calibrate

import (
	"regexp"
	"strconv"

	"github.com/ekglab/ekgstore/pkg/errors"
	"github.com/ekglab/ekgstore/pkg/trace"
)

// Calibration-box convention of the source chart format.
const (
	markerSpanX = 5.0
	markerSpanY = 10.0
)

// Units holds the physical units represented by one coordinate unit on each
// axis. Derived once per document and shared read-only by every waveform row.
type Units struct {
	X float64
	Y float64
}

// anchorRe captures the literal absolute anchor of a marker's leading move.
var anchorRe = regexp.MustCompile(`^m (-?[0-9.]+),(-?[0-9.]+)`)

// Offsets extracts the absolute anchor point of each marker path. Markers
// whose anchor cannot be parsed are skipped; a partial offset set is still
// useful, so a single unreadable marker never aborts the batch.
func Offsets(markers []string) []trace.Point {
	out := make([]trace.Point, 0, len(markers))
	for _, d := range markers {
		m := anchorRe.FindStringSubmatch(d)
		if m == nil {
			continue
		}
		x, errX := strconv.ParseFloat(m[1], 64)
		y, errY := strconv.ParseFloat(m[2], 64)
		if errX != nil || errY != nil {
			continue
		}
		out = append(out, trace.Point{X: x, Y: y})
	}
	return out
}

// UnitsFromMarker decodes one representative marker path and derives the
// per-axis unit scales from its known physical dimensions.
//
// The vertical scale is the marker's full height. The horizontal scale uses
// the span of the X values where the trace sits above the zero line, widened
// by the mean step size: the pulse's leading and trailing transition segments
// would otherwise undercount the true span.
//
// Degenerate markers (single point, zero range) return a CALIBRATION_FAILED
// error; emitting an infinite scale would silently corrupt every measurement
// downstream.
func UnitsFromMarker(marker string) (Units, error) {
	tr, err := trace.Decode(marker, nil)
	if err != nil {
		return Units{}, err
	}
	if tr.Len() < 2 {
		return Units{}, errors.New(errors.ErrCodeCalibration,
			"marker has %d points, need at least 2", tr.Len())
	}

	yMin, yMax := tr.Y[0], tr.Y[0]
	for _, y := range tr.Y[1:] {
		yMin = min(yMin, y)
		yMax = max(yMax, y)
	}
	if yMax == yMin {
		return Units{}, errors.New(errors.ErrCodeCalibration, "marker has zero vertical range")
	}

	xDenom := positiveSpan(tr) + meanStep(tr.X)
	if xDenom == 0 {
		return Units{}, errors.New(errors.ErrCodeCalibration, "marker has zero horizontal span")
	}

	return Units{
		X: markerSpanX / xDenom,
		Y: markerSpanY / (yMax - yMin),
	}, nil
}

// positiveSpan returns the range of the X values at samples where Y > 0,
// or 0 when no such sample exists.
func positiveSpan(tr trace.Trace) float64 {
	var lo, hi float64
	found := false
	for i, y := range tr.Y {
		if y <= 0 {
			continue
		}
		x := tr.X[i]
		if !found {
			lo, hi = x, x
			found = true
			continue
		}
		lo = min(lo, x)
		hi = max(hi, x)
	}
	return hi - lo
}

// meanStep returns the mean delta between consecutive samples, ignoring the
// leading move.
func meanStep(xs []float64) float64 {
	var total float64
	for i := 1; i < len(xs); i++ {
		total += xs[i] - xs[i-1]
	}
	return total / float64(len(xs)-1)
}
