package spc

import (
	"fmt"
	"os"
)

// Version tags stored in byte 1 of every file.
const (
	TagNewLSB   byte = 0x4B
	TagNewMSB   byte = 0x4C
	TagOld      byte = 0x4D
	TagShimadzu byte = 0xCF
)

// Decode reads the file at path and decodes it.
func Decode(path string) (*File, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNotFound, path, err)
	}
	return DecodeBytes(buf)
}

// DecodeBytes decodes an SPC file held in memory. The returned File does not
// reference buf.
func DecodeBytes(buf []byte) (*File, error) {
	if len(buf) < 2 {
		return nil, fmt.Errorf("%w: %d bytes is too short for a version tag", ErrCorruptFile, len(buf))
	}

	switch tag := buf[1]; tag {
	case TagNewLSB:
		return decodeNew(buf)
	case TagNewMSB:
		return nil, fmt.Errorf("%w: big-endian new format (tag 0x%02x)", ErrUnsupportedFormat, tag)
	case TagOld:
		return decodeOld(buf)
	case TagShimadzu:
		return decodeShimadzu(buf)
	default:
		return nil, &UnknownFormatError{Tag: tag}
	}
}
