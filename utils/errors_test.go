package utils

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorKindsAreDistinct(t *testing.T) {
	t.Parallel()

	var err error = fmt.Errorf("mov: decode: %w", StructuralError{Box: "moov"})

	var structural StructuralError
	require.ErrorAs(t, err, &structural)
	require.Equal(t, "moov", structural.Box)

	var relocation RelocationError
	require.False(t, errors.As(err, &relocation))

	var shape UnsupportedShapeError
	require.False(t, errors.As(err, &shape))
}

func TestErrorMessages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"structural", StructuralError{Box: "stbl", Context: "track 1"}, "missing mandatory 'stbl' box in track 1"},
		{"structural_no_context", StructuralError{Box: "moov"}, "missing mandatory 'moov' box"},
		{"truncation", TruncationWarning{Box: "stsz", Offset: 40, Need: 16, Have: 4}, "'stsz' at 40 truncated: need 16 bytes, have 4"},
		{"relocation", RelocationError{Reason: "no 'stco' box"}, "relocation failed: no 'stco' box"},
		{"shape", UnsupportedShapeError{Box: "stsc", Reason: "3 samples per chunk"}, "unsupported 'stsc' shape: 3 samples per chunk"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, tt.err.Error())
		})
	}
}
