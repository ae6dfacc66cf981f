package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	err := New(ErrCodeMalformedPath, "path %q is not relative", "M 1,2")
	want := `MALFORMED_PATH: path "M 1,2" is not relative`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("exit status 1")
	err := Wrap(ErrCodeConversion, cause, "convert sample.pdf")

	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should match cause via errors.Is")
	}
	if got := err.Error(); got != "CONVERSION_FAILED: convert sample.pdf: exit status 1" {
		t.Errorf("Error() = %q", got)
	}
}

func TestIsMatchesCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code Code
		want bool
	}{
		{"matching code", New(ErrCodeCalibration, "no markers"), ErrCodeCalibration, true},
		{"different code", New(ErrCodeCalibration, "no markers"), ErrCodeMetadataIntegrity, false},
		{"plain error", stderrors.New("boom"), ErrCodeInternal, false},
		{"wrapped in fmt", fmt.Errorf("outer: %w", New(ErrCodeConversion, "timeout")), ErrCodeConversion, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeMetadataIntegrity, "missing Scale_x")); got != ErrCodeMetadataIntegrity {
		t.Errorf("GetCode() = %q, want %q", got, ErrCodeMetadataIntegrity)
	}
	if got := GetCode(stderrors.New("boom")); got != "" {
		t.Errorf("GetCode() = %q, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(New(ErrCodeInvalidInput, "no input files")); got != "no input files" {
		t.Errorf("UserMessage() = %q", got)
	}
	if got := UserMessage(stderrors.New("boom")); got != "boom" {
		t.Errorf("UserMessage() = %q", got)
	}
}
