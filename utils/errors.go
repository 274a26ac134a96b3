package utils

import "fmt"

// StructuralError reports a mandatory box that is missing from the input.
// Decoding cannot continue past it.
type StructuralError struct {
	Box     string
	Context string
}

// Error returns the error message for StructuralError.
func (e StructuralError) Error() string {
	if e.Context == "" {
		return fmt.Sprintf("missing mandatory '%s' box", e.Box)
	}
	return fmt.Sprintf("missing mandatory '%s' box in %s", e.Box, e.Context)
}

// TruncationWarning describes box or table data that runs past the end of
// its range. Parsers recover from it locally and only log it.
type TruncationWarning struct {
	Box    string
	Offset int
	Need   int
	Have   int
}

// Error returns the error message for TruncationWarning.
func (e TruncationWarning) Error() string {
	return fmt.Sprintf("'%s' at %d truncated: need %d bytes, have %d", e.Box, e.Offset, e.Need, e.Have)
}

// RelocationError is raised by the muxer when the chunk-offset table cannot
// be patched. A file written without the patch is unplayable.
type RelocationError struct {
	Reason string
}

// Error returns the error message for RelocationError.
func (e RelocationError) Error() string {
	return "relocation failed: " + e.Reason
}

// UnsupportedShapeError is returned when a table has a form the consuming
// component does not implement.
type UnsupportedShapeError struct {
	Box    string
	Reason string
}

// Error returns the error message for UnsupportedShapeError.
func (e UnsupportedShapeError) Error() string {
	return fmt.Sprintf("unsupported '%s' shape: %s", e.Box, e.Reason)
}

// NilPacketError represents an error indicating that provided sample is nil.
type NilPacketError struct {
}

// Error method implementation for NilPacketError.
func (NilPacketError) Error() string {
	return "nil packet"
}
