package spc

import (
	"bytes"
	"fmt"
)

const (
	shimadzuDataOffset = 10240
	shimadzuSeparator  = 32
)

// decodeShimadzu guesses the array boundaries of a Shimadzu export: y
// doubles, a run of at least 32 zero bytes, then as many x doubles.
func decodeShimadzu(buf []byte) (*File, error) {
	if len(buf) <= shimadzuDataOffset {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the data offset %d", ErrHeuristicFailed, len(buf), shimadzuDataOffset)
	}
	raw := buf[shimadzuDataOffset:]

	yLen := bytes.Index(raw, make([]byte, shimadzuSeparator))
	if yLen <= 0 {
		return nil, fmt.Errorf("%w: no separator after the y array", ErrHeuristicFailed)
	}
	n := yLen / 8

	xStart := -1
	for i := yLen; i+8 <= len(raw); i += 8 {
		if !allZero(raw[i : i+8]) {
			xStart = i
			break
		}
	}
	if xStart < 0 {
		return nil, fmt.Errorf("%w: no x array after the separator", ErrHeuristicFailed)
	}
	if xStart+8*n > len(raw) {
		return nil, fmt.Errorf("%w: x array needs %d bytes at offset %d, have %d", ErrHeuristicFailed, 8*n, shimadzuDataOffset+xStart, len(raw)-xStart)
	}

	y := float64Samples(raw[:8*n])
	x := float64Samples(raw[xStart : xStart+8*n])

	return &File{
		Variant: VariantShimadzu,
		Header: Header{
			Version:      buf[1],
			Points:       n,
			SubfileCount: 1,
		},
		Layout:   GlobalExplicit{X: x},
		Subfiles: []Subfile{{Points: n, Y: y}},
		Labels:   AxisLabels{X: unknownLabel, Y: unknownLabel, Z: unknownLabel},
	}, nil
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
