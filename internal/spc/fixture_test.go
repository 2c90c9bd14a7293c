package spc

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

// newHeaderFixture packs to the 512-byte new-format header.
type newHeaderFixture struct {
	Flags          byte
	Version        byte
	Experiment     byte
	Exponent       int8
	Points         uint32
	First          float64
	Last           float64
	Subfiles       uint32
	XType          byte
	YType          byte
	ZType          byte
	Post           byte
	Date           uint32
	Resolution     [9]byte
	Source         [9]byte
	PeakPoint      uint16
	Spare          [32]byte
	Comment        [130]byte
	Catxt          [30]byte
	LogOffset      uint32
	Mods           uint32
	Procs          byte
	Level          byte
	SampleInterval uint16
	Factor         float32
	Method         [48]byte
	ZInc           float32
	WPlanes        uint32
	WInc           float32
	WType          byte
	Reserved       [187]byte
}

// oldHeaderFixture packs to the 224 bytes in front of the first subheader.
type oldHeaderFixture struct {
	Flags      byte
	Version    byte
	Exponent   int16
	Points     float32
	First      float32
	Last       float32
	XType      byte
	YType      byte
	Year       int16
	Month      byte
	Day        byte
	Hour       byte
	Minute     byte
	Resolution [8]byte
	PeakPoint  int16
	Scans      int16
	Spare      [28]byte
	Comment    [130]byte
	Catxt      [30]byte
}

type subheaderFixture struct {
	Flags    byte
	Exponent int8
	Index    uint16
	Time     float32
	Next     float32
	Noise    float32
	Points   int32
	Scans    int32
	WLevel   float32
	Reserved [4]byte
}

type logHeaderFixture struct {
	Size       uint32
	MemSize    uint32
	TextOffset uint32
	Bins       uint32
	Disks      uint32
	Reserved   [44]byte
}

// pack little-endian encodes every part back to back.
func pack(t *testing.T, parts ...any) []byte {
	t.Helper()
	var buf bytes.Buffer
	for _, p := range parts {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, p))
	}
	return buf.Bytes()
}

func testHeader(flags byte, exponent int8, points, subfiles uint32) newHeaderFixture {
	return newHeaderFixture{
		Flags:    flags,
		Version:  TagNewLSB,
		Exponent: exponent,
		Points:   points,
		Subfiles: subfiles,
	}
}

// oldWords encodes integers in the old format's b1 b0 b3 b2 byte order.
func oldWords(values ...int32) []byte {
	out := make([]byte, 0, 4*len(values))
	for _, v := range values {
		u := uint32(v)
		out = append(out, byte(u>>16), byte(u>>24), byte(u), byte(u>>8))
	}
	return out
}

func textField(dst []byte, s string) {
	copy(dst, s)
}

// generatedFixture is one subfile of three points with generated x.
func generatedFixture(t *testing.T) []byte {
	h := testHeader(0x00, 32, 3, 1)
	h.First, h.Last = 400, 500
	return pack(t, h, subheaderFixture{Exponent: 32}, []int32{1, 2, 3})
}

// globalXFixture is two subfiles sharing an explicit x array.
func globalXFixture(t *testing.T) []byte {
	h := testHeader(0x84, 0, 2, 2)
	return pack(t, h, []float32{1.5, 2.5},
		subheaderFixture{Exponent: 32, Index: 0}, []int32{1, 2},
		subheaderFixture{Exponent: 32, Index: 1}, []int32{3, 4},
	)
}

type perSubfileTrace struct {
	x, y []int32
}

var perSubfileTraces = []perSubfileTrace{
	{x: []int32{100, 200, 300}, y: []int32{1, 2, 3}},
	{x: []int32{400, 500}, y: []int32{-1, -2}},
}

func perSubfileBody(t *testing.T, i int) []byte {
	tr := perSubfileTraces[i]
	sh := subheaderFixture{Exponent: 32, Index: uint16(i), Points: int32(len(tr.x))}
	return pack(t, sh, tr.x, tr.y)
}

// sequentialFixture stores per-subfile x traces back to back.
func sequentialFixture(t *testing.T) []byte {
	h := testHeader(0x44, 0, 0, uint32(len(perSubfileTraces)))
	buf := pack(t, h)
	for i := range perSubfileTraces {
		buf = append(buf, perSubfileBody(t, i)...)
	}
	return buf
}

// directoryFixture stores the same traces as sequentialFixture in reverse
// order and addresses them through a directory table.
func directoryFixture(t *testing.T) []byte {
	var bodies [][]byte
	for i := range perSubfileTraces {
		bodies = append(bodies, perSubfileBody(t, i))
	}

	offsets := make([]int32, len(bodies))
	pos := newHeaderSize
	for i := len(bodies) - 1; i >= 0; i-- {
		offsets[i] = int32(pos)
		pos += len(bodies[i])
	}

	h := testHeader(0x44, 0, uint32(pos), uint32(len(bodies)))
	buf := pack(t, h)
	for i := len(bodies) - 1; i >= 0; i-- {
		buf = append(buf, bodies[i]...)
	}
	for i, b := range bodies {
		buf = append(buf, pack(t, offsets[i], int32(len(b)), float32(i))...)
	}
	return buf
}

func oldFixture(t *testing.T, subfiles ...[]int32) []byte {
	h := oldHeaderFixture{
		Version:  TagOld,
		Exponent: 32,
		Points:   3,
		First:    0,
		Last:     2,
		Year:     1994,
		Month:    5,
		Day:      17,
		Hour:     13,
		Minute:   45,
	}
	textField(h.Comment[:], "old  style\tfile")
	buf := pack(t, h)
	for i, y := range subfiles {
		buf = append(buf, pack(t, subheaderFixture{Exponent: 32, Index: uint16(i)})...)
		buf = append(buf, oldWords(y...)...)
	}
	return buf
}

func withLog(t *testing.T, file []byte, text string) []byte {
	offset := uint32(len(file))
	binary.LittleEndian.PutUint32(file[248:], offset)
	log := logHeaderFixture{Size: uint32(len(text)), MemSize: 4096, TextOffset: 64}
	return append(file, append(pack(t, log), text...)...)
}
