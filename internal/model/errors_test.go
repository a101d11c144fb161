package model

import (
	"errors"
	"fmt"
	"testing"
)

// TestErrorTag tests the taxonomy tag mapping for every failure class.
func TestErrorTag(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil", nil, ""},
		{"no images", ErrNoImagesFound, TagNoImagesFound},
		{"wrapped no images", fmt.Errorf("extract: %w", ErrNoImagesFound), TagNoImagesFound},
		{"capacity", &CapacityError{MarkBits: 101, Capacity: 100}, TagCapacity},
		{"dimension mismatch", &DimensionMismatchError{AWidth: 2, AHeight: 2, BWidth: 3, BHeight: 3}, TagDimensionMismatch},
		{"no watermark", ErrNoWatermark, TagDecoding},
		{"reconstruction", fmt.Errorf("pdf: %w", ErrReconstruction), TagReconstruction},
		{"format", ErrInvalidFormat, TagFormat},
		{"unknown", errors.New("disk full"), ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := ErrorTag(tc.err); got != tc.expected {
				t.Errorf("ErrorTag() = %q, expected %q", got, tc.expected)
			}
		})
	}
}

// TestCapacityErrorMessage tests that the capacity error reports both sides
// of the comparison.
func TestCapacityErrorMessage(t *testing.T) {
	t.Parallel()

	err := &CapacityError{MarkBits: 40001, Capacity: 40000}
	want := "mark of 40001 bits exceeds cover capacity of 40000 bits"
	if err.Error() != want {
		t.Errorf("got %q, expected %q", err.Error(), want)
	}
}

// TestDetectKind tests container kind sniffing.
func TestDetectKind(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		data     []byte
		expected ContainerKind
		wantErr  bool
	}{
		{"docx zip magic", []byte("PK\x03\x04rest"), KindDOCX, false},
		{"pdf magic", []byte("%PDF-1.7\n"), KindPDF, false},
		{"garbage", []byte("hello world"), KindUnknown, true},
		{"empty", nil, KindUnknown, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			kind, err := DetectKind(tc.data)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidFormat) {
					t.Fatalf("expected ErrInvalidFormat, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if kind != tc.expected {
				t.Errorf("DetectKind() = %v, expected %v", kind, tc.expected)
			}
		})
	}
}

// TestParseContainerKind tests round-tripping kind names.
func TestParseContainerKind(t *testing.T) {
	t.Parallel()

	for _, kind := range []ContainerKind{KindDOCX, KindPDF} {
		if got := ParseContainerKind(kind.String()); got != kind {
			t.Errorf("ParseContainerKind(%q) = %v, expected %v", kind.String(), got, kind)
		}
	}
	if got := ParseContainerKind("odt"); got != KindUnknown {
		t.Errorf("ParseContainerKind(odt) = %v, expected KindUnknown", got)
	}
}
