// Package extract assembles one converted chart page into its final result:
// the metadata record plus, for every located waveform, the absolute pixel
// trace and the physically scaled trace.
//
// Scaling only happens behind a metadata integrity gate. The scale
// descriptors printed on the page are the sole source of the mm-per-unit
// factors, so a page whose descriptors are missing or carry unexpected units
// is rejected outright rather than emitted with silently wrong magnitudes.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ekglab/ekgstore/pkg/calibrate"
	"github.com/ekglab/ekgstore/pkg/errors"
	"github.com/ekglab/ekgstore/pkg/metadata"
	"github.com/ekglab/ekgstore/pkg/svgdoc"
	"github.com/ekglab/ekgstore/pkg/waveform"
)

// Lead is one extracted waveform. AbsX/AbsY are the rebased document-space
// coordinates; ActualX/ActualY are the same samples in physical units
// (seconds and millivolts for the standard template).
type Lead struct {
	Label   string
	AbsX    []float64
	AbsY    []float64
	ActualX []float64
	ActualY []float64
}

// Result is the full extraction output for one page.
type Result struct {
	Leads []Lead
	Units calibrate.Units
	Meta  metadata.Record
}

// Required metadata fields and the unit substrings their values must carry.
const (
	scaleXUnit = "mm/s"
	scaleYUnit = "mm/mV"
)

var requiredFields = []string{"ID", "Scale_x", "Scale_y"}

// Build runs the complete extraction over a parsed document.
//
// Classification runs before waveform location: the locator strips the tree,
// and the metadata rules must see it intact. Integrity is checked before any
// trace is decoded so a bad page fails fast with METADATA_INTEGRITY.
func Build(doc svgdoc.Document) (*Result, error) {
	meta := metadata.Classify(doc)
	if err := validate(meta); err != nil {
		return nil, err
	}

	fx, err := scaleFactor(meta["Scale_x"])
	if err != nil {
		return nil, err
	}
	fy, err := scaleFactor(meta["Scale_y"])
	if err != nil {
		return nil, err
	}

	waves, units, err := waveform.Locate(doc)
	if err != nil {
		return nil, err
	}

	res := &Result{Units: units, Meta: meta}
	for _, w := range waves {
		res.Leads = append(res.Leads, Lead{
			Label:   w.Label,
			AbsX:    w.Trace.X,
			AbsY:    w.Trace.Y,
			ActualX: scale(w.Trace.X, units.X/fx),
			ActualY: scale(w.Trace.Y, units.Y/fy),
		})
	}
	return res, nil
}

// validate checks the required fields and their unit substrings.
func validate(meta metadata.Record) error {
	for _, f := range requiredFields {
		if meta[f] == "" {
			return errors.New(errors.ErrCodeMetadataIntegrity,
				"required field %q is missing", f)
		}
	}
	if !strings.Contains(meta["Scale_x"], scaleXUnit) {
		return errors.New(errors.ErrCodeMetadataIntegrity,
			"Scale_x %q does not carry %s", meta["Scale_x"], scaleXUnit)
	}
	if !strings.Contains(meta["Scale_y"], scaleYUnit) {
		return errors.New(errors.ErrCodeMetadataIntegrity,
			"Scale_y %q does not carry %s", meta["Scale_y"], scaleYUnit)
	}
	return nil
}

var leadingIntRe = regexp.MustCompile(`^\d+`)

// scaleFactor parses the leading integer of a scale descriptor such as
// "25mm/s". A zero factor would make the division below meaningless and is
// rejected with the same integrity code.
func scaleFactor(descriptor string) (float64, error) {
	m := leadingIntRe.FindString(descriptor)
	if m == "" {
		return 0, errors.New(errors.ErrCodeMetadataIntegrity,
			"scale descriptor %q has no leading magnitude", descriptor)
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil || f == 0 {
		return 0, errors.New(errors.ErrCodeMetadataIntegrity,
			"scale descriptor %q has an unusable magnitude", descriptor)
	}
	return f, nil
}

func scale(samples []float64, factor float64) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s * factor
	}
	return out
}
