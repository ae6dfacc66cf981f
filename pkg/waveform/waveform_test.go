package waveform

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ekglab/ekgstore/pkg/errors"
	"github.com/ekglab/ekgstore/pkg/svgdoc"
)

const calMarker = "m 50,350 0,-100 37.5,0 0,100"

func parse(t *testing.T, svg string) svgdoc.Document {
	t.Helper()
	doc, err := svgdoc.Parse(strings.NewReader(svg))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return doc
}

func TestLocateStructuralPattern(t *testing.T) {
	doc := parse(t, `<svg xmlns="http://www.w3.org/2000/svg">
		<defs><clipPath id="c0"/></defs>
		<g><path d="m 116,323.6 1,1 1,1 1,0 1,0"/></g>
		<g><text>II</text></g>
		<g><path d="`+calMarker+`"/></g>
		<g><path d="m 0,0 10,0 0,10 z"/></g>
	</svg>`)

	records, units, err := Locate(doc)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Label != "II" {
		t.Errorf("Label = %q, want II", records[0].Label)
	}

	wantX := []float64{66, 67, 68, 69, 70}
	wantY := []float64{-26.4, -25.4, -24.4, -24.4, -24.4}
	if diff := cmp.Diff(wantX, records[0].Trace.X); diff != "" {
		t.Errorf("X mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantY, records[0].Trace.Y, cmp.Comparer(closeEnough)); diff != "" {
		t.Errorf("Y mismatch (-want +got):\n%s", diff)
	}

	if math.Abs(units.X-0.1) > 1e-9 || math.Abs(units.Y-0.1) > 1e-9 {
		t.Errorf("units = %+v, want {0.1 0.1}", units)
	}
}

func TestLocateMultipleStrips(t *testing.T) {
	// Two strips, each with its own marker. Anchoring must pair each
	// waveform with the nearest marker, not the first.
	doc := parse(t, `<svg xmlns="http://www.w3.org/2000/svg">
		<g><path d="m 100,90 10,10 10,-5"/></g>
		<g><text>I</text></g>
		<g><path d="m 100,290 10,10 10,-5"/></g>
		<g><text>V5</text></g>
		<g><path d="m 50,100 0,-50 20,0 0,50"/></g>
		<g><path d="m 50,300 0,-50 20,0 0,50"/></g>
	</svg>`)

	records, _, err := Locate(doc)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	// First wave rebased on the y=100 anchor, second on y=300.
	if got := records[0].Trace.Y[0]; got != -10 {
		t.Errorf("strip 1 first Y = %v, want -10", got)
	}
	if got := records[1].Trace.Y[0]; got != -10 {
		t.Errorf("strip 2 first Y = %v, want -10", got)
	}
	if records[0].Label != "I" || records[1].Label != "V5" {
		t.Errorf("labels = %q, %q", records[0].Label, records[1].Label)
	}
}

func TestLocateFallbackPattern(t *testing.T) {
	doc := parse(t, `<svg xmlns="http://www.w3.org/2000/svg">
		<g>
			<path d="m 116,323.6 1,1 1,1"/>
			<text>V1</text>
			<path d="`+calMarker+`"/>
		</g>
	</svg>`)

	records, _, err := Locate(doc)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Label != "V1" {
		t.Errorf("Label = %q, want V1", records[0].Label)
	}
}

func TestLocateNoMarkersIsFatal(t *testing.T) {
	doc := parse(t, `<svg xmlns="http://www.w3.org/2000/svg">
		<g><path d="m 116,323.6 1,1 1,1"/></g>
		<g><text>II</text></g>
	</svg>`)

	_, _, err := Locate(doc)
	if !errors.Is(err, errors.ErrCodeCalibration) {
		t.Errorf("err = %v, want CALIBRATION_FAILED", err)
	}
}

func TestLocateNoWaveformsIsEmpty(t *testing.T) {
	doc := parse(t, `<svg xmlns="http://www.w3.org/2000/svg">
		<g><path d="`+calMarker+`"/></g>
	</svg>`)

	records, units, err := Locate(doc)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records, want 0", len(records))
	}
	if units.Y == 0 {
		t.Error("units should still be derived from the marker")
	}
}

func TestLocateMalformedWaveform(t *testing.T) {
	doc := parse(t, `<svg xmlns="http://www.w3.org/2000/svg">
		<g><path d="m 116,323.6 1,oops"/></g>
		<g><text>II</text></g>
		<g><path d="`+calMarker+`"/></g>
	</svg>`)

	_, _, err := Locate(doc)
	if !errors.Is(err, errors.ErrCodeMalformedPath) {
		t.Errorf("err = %v, want MALFORMED_PATH", err)
	}
}

func closeEnough(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
