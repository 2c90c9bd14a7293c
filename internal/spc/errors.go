package spc

import (
	"errors"
	"fmt"
)

// Decode errors. Every failure returned by Decode and DecodeBytes matches one
// of these through errors.Is.
var (
	ErrNotFound          = errors.New("spc: file not readable")
	ErrCorruptFile       = errors.New("spc: corrupt file")
	ErrUnknownFormat     = errors.New("spc: unknown format")
	ErrUnsupportedFormat = errors.New("spc: unsupported format")
	ErrHeuristicFailed   = errors.New("spc: format heuristic failed")

	// ErrLogBlockMalformed never fails a decode. It is recorded on File.LogErr
	// and the log fields are left empty.
	ErrLogBlockMalformed = errors.New("spc: malformed log block")
)

// UnknownFormatError carries the version tag that was not recognised.
type UnknownFormatError struct {
	Tag byte
}

func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("spc: unknown format version tag 0x%02x", e.Tag)
}

// Is makes errors.Is(err, ErrUnknownFormat) succeed.
func (e *UnknownFormatError) Is(target error) bool {
	return target == ErrUnknownFormat
}

// corrupt wraps a structural failure as ErrCorruptFile with context.
func corrupt(what string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrCorruptFile, what, err)
}
