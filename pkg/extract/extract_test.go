package extract

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ekglab/ekgstore/pkg/errors"
	"github.com/ekglab/ekgstore/pkg/svgdoc"
)

// textAt renders a text element whose translation lands in grid cell (x, y).
func textAt(x, y int, s string) string {
	return fmt.Sprintf(`<text transform="matrix(1,0,0,1,%d.4,%d.7)">%s</text>`, x*100+7, y*100+11, s)
}

func docFrom(t *testing.T, elements ...string) svgdoc.Document {
	t.Helper()
	svg := "<svg xmlns=\"http://www.w3.org/2000/svg\">\n" + strings.Join(elements, "\n") + "\n</svg>"
	doc, err := svgdoc.Parse(strings.NewReader(svg))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return doc
}

// page assembles a complete single-lead chart: one waveform labelled II, one
// calibration marker spanning 5x10 units, and the metadata cells that
// survive the integrity gate.
func page(t *testing.T) svgdoc.Document {
	elements := []string{
		`<g><path d="m 116,323.6 1,1 1,1 1,0 1,0"/></g>`,
		`<g><text>II</text></g>`,
		`<g><path d="m 50,350 0,-100 37.5,0 0,100"/></g>`,
		textAt(54, 204, "John Doe"),
		textAt(82, 204, "ID: 011489879"),
		textAt(54, 259, "25mm/s"),
		textAt(70, 259, "10mm/mV"),
	}
	return docFrom(t, elements...)
}

func TestBuildEndToEnd(t *testing.T) {
	res, err := Build(page(t))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if res.Meta["ID"] != "011489879" {
		t.Errorf("ID = %q, want 011489879", res.Meta["ID"])
	}
	if len(res.Leads) != 1 {
		t.Fatalf("got %d leads, want 1", len(res.Leads))
	}

	lead := res.Leads[0]
	if lead.Label != "II" {
		t.Errorf("Label = %q, want II", lead.Label)
	}

	approx := cmp.Comparer(func(a, b float64) bool { return math.Abs(a-b) < 1e-9 })

	if diff := cmp.Diff([]float64{66, 67, 68, 69, 70}, lead.AbsX, approx); diff != "" {
		t.Errorf("AbsX mismatch (-want +got):\n%s", diff)
	}
	// Marker height 100 for 10 units and width 37.5 for 5 units give pixel
	// units of 0.1 on both axes. Dividing by the printed 25mm/s and 10mm/mV
	// factors yields seconds and millivolts.
	wantX := []float64{0.264, 0.268, 0.272, 0.276, 0.28}
	wantY := []float64{-0.264, -0.254, -0.244, -0.244, -0.244}
	if diff := cmp.Diff(wantX, lead.ActualX, approx); diff != "" {
		t.Errorf("ActualX mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantY, lead.ActualY, approx); diff != "" {
		t.Errorf("ActualY mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildMissingID(t *testing.T) {
	doc := docFrom(t,
		`<g><path d="m 116,323.6 1,1"/></g>`,
		`<g><text>II</text></g>`,
		`<g><path d="m 50,350 0,-100 37.5,0 0,100"/></g>`,
		textAt(54, 259, "25mm/s"),
		textAt(70, 259, "10mm/mV"),
	)

	_, err := Build(doc)
	if !errors.Is(err, errors.ErrCodeMetadataIntegrity) {
		t.Errorf("err = %v, want METADATA_INTEGRITY", err)
	}
}

func TestBuildWrongScaleUnits(t *testing.T) {
	tests := []struct {
		name   string
		scaleX string
		scaleY string
	}{
		{"x scale in wrong unit", "25cm/s", "10mm/mV"},
		{"y scale in wrong unit", "25mm/s", "10mm/V"},
		{"scale without magnitude", "mm/s", "10mm/mV"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := docFrom(t,
				`<g><path d="m 116,323.6 1,1"/></g>`,
				`<g><text>II</text></g>`,
				`<g><path d="m 50,350 0,-100 37.5,0 0,100"/></g>`,
				textAt(54, 204, "John Doe"),
				textAt(82, 204, "ID: 011489879"),
				textAt(54, 259, tt.scaleX),
				textAt(70, 259, tt.scaleY),
			)
			_, err := Build(doc)
			if !errors.Is(err, errors.ErrCodeMetadataIntegrity) {
				t.Errorf("err = %v, want METADATA_INTEGRITY", err)
			}
		})
	}
}

func TestBuildNoMarkers(t *testing.T) {
	doc := docFrom(t,
		`<g><path d="m 116,323.6 1,1"/></g>`,
		`<g><text>II</text></g>`,
		textAt(54, 204, "John Doe"),
		textAt(82, 204, "ID: 011489879"),
		textAt(54, 259, "25mm/s"),
		textAt(70, 259, "10mm/mV"),
	)

	_, err := Build(doc)
	if !errors.Is(err, errors.ErrCodeCalibration) {
		t.Errorf("err = %v, want CALIBRATION_FAILED", err)
	}
}

func TestScaleFactor(t *testing.T) {
	tests := []struct {
		descriptor string
		want       float64
		wantErr    bool
	}{
		{"25mm/s", 25, false},
		{"10mm/mV", 10, false},
		{"5", 5, false},
		{"mm/s", 0, true},
		{"", 0, true},
		{"0mm/s", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.descriptor, func(t *testing.T) {
			got, err := scaleFactor(tt.descriptor)
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeMetadataIntegrity) {
					t.Errorf("scaleFactor(%q) err = %v, want METADATA_INTEGRITY", tt.descriptor, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("scaleFactor(%q): %v", tt.descriptor, err)
			}
			if got != tt.want {
				t.Errorf("scaleFactor(%q) = %v, want %v", tt.descriptor, got, tt.want)
			}
		})
	}
}
