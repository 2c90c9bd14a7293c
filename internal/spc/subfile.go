package spc

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/spectriclabs/spc-data-service/internal/spc/cursor"
)

const subheaderSize = 32

// subheader is the fixed 32-byte header in front of every subfile.
type subheader struct {
	flags    byte
	exponent int
	index    uint16
	time     float32
	next     float32
	noise    float32
	points   int32
	scans    int32
	wlevel   float32
}

func readSubheader(c *cursor.Cursor) (subheader, error) {
	var sh subheader
	var err error
	var exp byte

	if !c.Has(subheaderSize) {
		return sh, c.Skip(subheaderSize)
	}
	sh.flags, _ = c.Uint8()
	exp, _ = c.Uint8()
	sh.exponent = exponentFromByte(exp)
	sh.index, _ = c.Uint16()
	sh.time, _ = c.Float32()
	sh.next, _ = c.Float32()
	sh.noise, _ = c.Float32()
	sh.points, _ = c.Int32()
	sh.scans, _ = c.Int32()
	sh.wlevel, _ = c.Float32()
	err = c.Skip(4)
	return sh, err
}

// exponentFromByte reads a signed exponent byte; 0x80 is the float marker.
func exponentFromByte(b byte) int {
	if b == 0x80 {
		return FloatExponent
	}
	return int(int8(b))
}

// sampleOrder is the byte order of 32-bit integer samples.
type sampleOrder int

const (
	orderLittleEndian sampleOrder = iota
	// orderWordSwapped is the old format's b1 b0 b3 b2 layout.
	orderWordSwapped
)

// subfileParams are the file-level settings a subfile falls back to.
type subfileParams struct {
	points      int
	exponent    int
	perSubfileX bool
	shortY      bool
	multi       bool
	order       sampleOrder
}

// resolve picks the point count and exponent that apply to sh.
func (p subfileParams) resolve(sh subheader) (points, exponent int) {
	points = p.points
	if p.perSubfileX && sh.points > 0 {
		points = int(sh.points)
	}

	exponent = p.exponent
	if p.multi {
		exponent = sh.exponent
	}
	if exponent != FloatExponent && (exponent <= -128 || exponent > 127) {
		exponent = 0
	}
	return points, exponent
}

// sampleWidth is the byte size of one y sample.
func (p subfileParams) sampleWidth(exponent int) int {
	if p.shortY && exponent != FloatExponent {
		return 2
	}
	return 4
}

// span is the total byte size of a subfile with header sh.
func (p subfileParams) span(sh subheader) int {
	points, exponent := p.resolve(sh)
	size := subheaderSize + points*p.sampleWidth(exponent)
	if p.perSubfileX {
		size += 4 * points
	}
	return size
}

// decodeSubfile decodes the subfile held in data. The sample arrays are
// copied out, so the result does not reference data.
func decodeSubfile(data []byte, p subfileParams) (Subfile, error) {
	c := cursor.New(data)
	sh, err := readSubheader(c)
	if err != nil {
		return Subfile{}, corrupt("subheader", err)
	}

	points, exponent := p.resolve(sh)
	if points <= 0 {
		return Subfile{}, fmt.Errorf("%w: subfile %d has point count %d", ErrCorruptFile, sh.index, points)
	}

	sub := Subfile{
		Index:    int(sh.index),
		Flags:    sh.flags,
		Exponent: exponent,
		Points:   points,
		Time:     sh.time,
		NextTime: sh.next,
		Noise:    sh.noise,
		Scans:    int(sh.scans),
		WLevel:   sh.wlevel,
	}

	if p.perSubfileX {
		raw, err := c.Bytes(4 * points)
		if err != nil {
			return Subfile{}, corrupt(fmt.Sprintf("subfile %d x values", sub.Index), err)
		}
		if exponent == FloatExponent {
			sub.X = float32Samples(raw)
		} else {
			sub.X = int32Samples(raw, orderLittleEndian, exponent-32)
		}
	}

	width := p.sampleWidth(exponent)
	raw, err := c.Bytes(width * points)
	if err != nil {
		return Subfile{}, corrupt(fmt.Sprintf("subfile %d y values", sub.Index), err)
	}
	switch {
	case exponent == FloatExponent:
		sub.Y = float32Samples(raw)
	case width == 2:
		sub.Y = int16Samples(raw, exponent-16)
	default:
		sub.Y = int32Samples(raw, p.order, exponent-32)
	}
	return sub, nil
}

func float32Samples(raw []byte) []float64 {
	out := make([]float64, len(raw)/4)
	for i := range out {
		out[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:])))
	}
	return out
}

func int16Samples(raw []byte, scale int) []float64 {
	out := make([]float64, len(raw)/2)
	for i := range out {
		v := int16(binary.LittleEndian.Uint16(raw[2*i:]))
		out[i] = math.Ldexp(float64(v), scale)
	}
	return out
}

func int32Samples(raw []byte, order sampleOrder, scale int) []float64 {
	out := make([]float64, len(raw)/4)
	for i := range out {
		w := raw[4*i : 4*i+4]
		var u uint32
		if order == orderWordSwapped {
			u = swappedWord(w)
		} else {
			u = binary.LittleEndian.Uint32(w)
		}
		out[i] = math.Ldexp(float64(int32(u)), scale)
	}
	return out
}

// swappedWord rebuilds an old-format integer from bytes b0 b1 b2 b3 as
// b1<<24 | b0<<16 | b3<<8 | b2.
func swappedWord(b []byte) uint32 {
	return uint32(b[1])<<24 | uint32(b[0])<<16 | uint32(b[3])<<8 | uint32(b[2])
}

func float64Samples(raw []byte) []float64 {
	out := make([]float64, len(raw)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[8*i:]))
	}
	return out
}
