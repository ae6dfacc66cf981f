package calibrate

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ekglab/ekgstore/pkg/errors"
	"github.com/ekglab/ekgstore/pkg/trace"
)

// calMarker is a 10-unit tall, 5-unit wide calibration pulse: up, across,
// down. Chosen so both derived units come out to exactly 0.1.
const calMarker = "m 50,350 0,-100 37.5,0 0,100"

func TestOffsets(t *testing.T) {
	markers := []string{
		"m 50,90 0,-20 10,0 0,20",
		"m 50.5,-290 0,-20 10,0 0,20",
		"banana",
		"m x,y 1,2",
	}

	want := []trace.Point{
		{X: 50, Y: 90},
		{X: 50.5, Y: -290},
	}
	got := Offsets(markers)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Offsets mismatch (-want +got):\n%s", diff)
	}
}

func TestOffsetsAllUnparseable(t *testing.T) {
	if got := Offsets([]string{"nope", ""}); len(got) != 0 {
		t.Errorf("Offsets = %v, want empty", got)
	}
}

func TestUnitsFromMarker(t *testing.T) {
	u, err := UnitsFromMarker(calMarker)
	if err != nil {
		t.Fatalf("UnitsFromMarker: %v", err)
	}

	// Height 100 → y unit 10/100. Positive-Y x span 37.5 plus mean step
	// 12.5 → x unit 5/50.
	if math.Abs(u.X-0.1) > 1e-9 {
		t.Errorf("Units.X = %v, want 0.1", u.X)
	}
	if math.Abs(u.Y-0.1) > 1e-9 {
		t.Errorf("Units.Y = %v, want 0.1", u.Y)
	}
}

func TestUnitsFromDegenerateMarker(t *testing.T) {
	tests := []struct {
		name   string
		marker string
	}{
		{"single point", "m 10,10"},
		{"flat line", "m 10,10 5,0 5,0"},
		{"zero horizontal span", "m 0,-5 0,-10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnitsFromMarker(tt.marker)
			if !errors.Is(err, errors.ErrCodeCalibration) {
				t.Errorf("UnitsFromMarker(%q) err = %v, want CALIBRATION_FAILED", tt.marker, err)
			}
		})
	}
}

func TestUnitsFromMalformedMarker(t *testing.T) {
	_, err := UnitsFromMarker("M 10,10 0,5")
	if !errors.Is(err, errors.ErrCodeMalformedPath) {
		t.Errorf("err = %v, want MALFORMED_PATH", err)
	}
}
