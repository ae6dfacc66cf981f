// Package waveform locates the signal traces on a converted chart page.
//
// Nothing on the page says which path is a waveform. The discriminator is
// structural: the print template always places a waveform's lead label in
// the group following the path's parent group. Paths matching that pattern
// are waveforms; every other surviving path is a calibration marker. The
// markers then supply the anchor offsets and the physical unit scale used to
// reconstruct each waveform's absolute coordinates.
package waveform

import (
	"regexp"

	"github.com/ekglab/ekgstore/pkg/calibrate"
	"github.com/ekglab/ekgstore/pkg/errors"
	"github.com/ekglab/ekgstore/pkg/svgdoc"
	"github.com/ekglab/ekgstore/pkg/trace"
)

// Record pairs one lead label (possibly empty) with its decoded trace.
type Record struct {
	Label string
	Trace trace.Trace
}

// gridRe matches paths made only of axis-parallel segments: the printed
// background grid, which would otherwise drown the marker partition.
var gridRe = regexp.MustCompile(`^m -?[0-9.]+,-?[0-9.]+ (-?[0-9.]+,0 ?|0,-?[0-9.]+ ?)+z?$`)

// Locate partitions the document's paths into waveforms and calibration
// markers, decodes each waveform anchored to the marker offsets, and derives
// the unit scale from a representative marker.
//
// An empty waveform list is not an error: the caller may still want the
// page's metadata. An empty or unusable marker set is fatal, since no scale
// can be derived for the document.
func Locate(doc svgdoc.Document) ([]Record, calibrate.Units, error) {
	strip(doc)

	waves, labels := candidates(doc)

	markers := markerPaths(doc, waves)
	if len(markers) == 0 {
		return nil, calibrate.Units{}, errors.New(errors.ErrCodeCalibration,
			"document has no calibration markers")
	}

	units, err := calibrate.UnitsFromMarker(markers[0])
	if err != nil {
		return nil, calibrate.Units{}, err
	}

	offsets := calibrate.Offsets(markers)
	if len(offsets) == 0 {
		return nil, calibrate.Units{}, errors.New(errors.ErrCodeCalibration,
			"no calibration marker has a readable anchor")
	}

	records := make([]Record, 0, len(waves))
	for i, w := range waves {
		d, _ := w.Attr("d")
		tr, err := trace.Decode(d, offsets)
		if err != nil {
			return nil, calibrate.Units{}, err
		}
		records = append(records, Record{Label: labels[i], Trace: tr})
	}
	return records, units, nil
}

// strip removes tree noise before partitioning: definition blocks, the
// printed background grid, and groups left without content.
func strip(doc svgdoc.Document) {
	for _, d := range doc.Find("defs") {
		d.Detach()
	}
	for _, p := range doc.Find("path") {
		d, ok := p.Attr("d")
		if !ok || gridRe.MatchString(d) {
			p.Detach()
		}
	}
	for _, g := range doc.Find("g") {
		if len(g.Find("*")) == 0 && g.Text() == "" {
			g.Detach()
		}
	}
}

// candidates returns the waveform paths with their lead labels, in document
// order. The primary pattern pairs a path with the text inside its parent's
// next sibling group. When the primary pattern matches nothing, a named
// fallback handles flat documents where the label follows the path directly.
func candidates(doc svgdoc.Document) ([]svgdoc.Node, []string) {
	var waves []svgdoc.Node
	var labels []string

	for _, p := range doc.Find("path") {
		parent := p.Parent()
		if parent == nil {
			continue
		}
		sib := parent.NextElement()
		if sib == nil || sib.Tag() != "g" {
			continue
		}
		texts := sib.Find("text")
		if len(texts) == 0 {
			continue
		}
		waves = append(waves, p)
		labels = append(labels, texts[0].Text())
	}

	if len(waves) == 0 {
		return flatCandidates(doc)
	}
	return waves, labels
}

// flatCandidates is the fallback pattern: a path whose immediate next
// sibling element is a text node.
func flatCandidates(doc svgdoc.Document) ([]svgdoc.Node, []string) {
	var waves []svgdoc.Node
	var labels []string
	for _, p := range doc.Find("path") {
		sib := p.NextElement()
		if sib == nil || sib.Tag() != "text" {
			continue
		}
		waves = append(waves, p)
		labels = append(labels, sib.Text())
	}
	return waves, labels
}

// markerPaths returns the "d" expressions of every path not selected as a
// waveform.
func markerPaths(doc svgdoc.Document, waves []svgdoc.Node) []string {
	isWave := make(map[svgdoc.Node]bool, len(waves))
	for _, w := range waves {
		isWave[w] = true
	}

	var out []string
	for _, p := range doc.Find("path") {
		if isWave[p] {
			continue
		}
		if d, ok := p.Attr("d"); ok {
			out = append(out, d)
		}
	}
	return out
}
