package spc

import (
	"fmt"

	"github.com/spectriclabs/spc-data-service/internal/spc/cursor"
)

const (
	newHeaderSize      = 512
	directoryEntrySize = 12
)

// newHeader is the raw 512-byte little-endian main header.
type newHeader struct {
	flags      byte
	version    byte
	experiment byte
	exponent   int
	points     uint32
	first      float64
	last       float64
	subfiles   uint32
	xtype      byte
	ytype      byte
	ztype      byte
	post       byte
	date       uint32
	resolution []byte
	source     []byte
	peakPoint  uint16
	comment    []byte
	catxt      []byte
	logOffset  uint32
	mods       uint32
	procs      byte
	level      byte
	sampleIntv uint16
	factor     float32
	method     []byte
	zinc       float32
	wplanes    uint32
	winc       float32
	wtype      byte
}

func readNewHeader(c *cursor.Cursor) (newHeader, error) {
	var h newHeader
	if !c.Has(newHeaderSize) {
		return h, corrupt("main header", c.Skip(newHeaderSize))
	}

	// The length check above covers every read below.
	var exp byte
	h.flags, _ = c.Uint8()
	h.version, _ = c.Uint8()
	h.experiment, _ = c.Uint8()
	exp, _ = c.Uint8()
	h.exponent = exponentFromByte(exp)
	h.points, _ = c.Uint32()
	h.first, _ = c.Float64()
	h.last, _ = c.Float64()
	h.subfiles, _ = c.Uint32()
	h.xtype, _ = c.Uint8()
	h.ytype, _ = c.Uint8()
	h.ztype, _ = c.Uint8()
	h.post, _ = c.Uint8()
	h.date, _ = c.Uint32()
	h.resolution, _ = c.Bytes(9)
	h.source, _ = c.Bytes(9)
	h.peakPoint, _ = c.Uint16()
	_ = c.Skip(32)
	h.comment, _ = c.Bytes(130)
	h.catxt, _ = c.Bytes(30)
	h.logOffset, _ = c.Uint32()
	h.mods, _ = c.Uint32()
	h.procs, _ = c.Uint8()
	h.level, _ = c.Uint8()
	h.sampleIntv, _ = c.Uint16()
	h.factor, _ = c.Float32()
	h.method, _ = c.Bytes(48)
	h.zinc, _ = c.Float32()
	h.wplanes, _ = c.Uint32()
	h.winc, _ = c.Float32()
	h.wtype, _ = c.Uint8()
	return h, c.Skip(187)
}

func decodeNew(buf []byte) (*File, error) {
	c := cursor.New(buf)
	h, err := readNewHeader(c)
	if err != nil {
		return nil, err
	}
	flags := ParseFlags(h.flags)

	nsub := int(h.subfiles)
	if nsub == 0 && !flags.Multi {
		nsub = 1
	}
	if nsub == 0 {
		return nil, fmt.Errorf("%w: multi-subfile header declares no subfiles", ErrCorruptFile)
	}
	if nsub > len(buf)/subheaderSize {
		return nil, fmt.Errorf("%w: %d subfiles cannot fit in %d bytes", ErrCorruptFile, nsub, len(buf))
	}

	points := int(h.points)
	var layout XLayout
	switch {
	case flags.PerSubfileX:
		layout = PerSubfile{}
	case flags.ExplicitX:
		raw, err := c.Bytes(4 * points)
		if err != nil {
			return nil, corrupt("global x array", err)
		}
		layout = GlobalExplicit{X: float32Samples(raw)}
	default:
		layout = Generated{First: h.first, Last: h.last, Points: points}
	}

	var subs []Subfile
	if flags.PerSubfileX && points != 0 {
		subs, err = decodeDirectory(buf, points, nsub, flags)
	} else {
		subs, err = decodeSequential(buf, c.Pos(), nsub, subfileParams{
			points:      points,
			exponent:    h.exponent,
			perSubfileX: flags.PerSubfileX,
			shortY:      flags.ShortY,
			multi:       flags.Multi,
		})
	}
	if err != nil {
		return nil, err
	}

	f := &File{
		Variant: VariantNewLSB,
		Flags:   flags,
		Header: Header{
			Version:        h.version,
			Experiment:     h.experiment,
			ExperimentType: ExperimentType(h.experiment),
			Exponent:       h.exponent,
			Points:         points,
			First:          h.first,
			Last:           h.last,
			SubfileCount:   len(subs),
			XType:          h.xtype,
			YType:          h.ytype,
			ZType:          h.ztype,
			Post:           h.post,
			Date:           unpackDate(h.date),
			Resolution:     cString(h.resolution),
			Source:         cString(h.source),
			PeakPoint:      int(h.peakPoint),
			Comment:        comment(h.comment),
			LogOffset:      h.logOffset,
			Mods:           h.mods,
			Processing:     h.procs,
			Level:          h.level,
			SampleInterval: h.sampleIntv,
			Factor:         h.factor,
			Method:         cString(h.method),
			ZIncrement:     h.zinc,
			WPlanes:        h.wplanes,
			WIncrement:     h.winc,
			WType:          h.wtype,
		},
		Layout:   layout,
		Subfiles: subs,
		Labels:   resolveLabels(h.xtype, h.ytype, h.ztype, flags.TextLabels, h.catxt),
	}

	if h.logOffset != 0 {
		f.Log, f.LogErr = decodeLogBlock(buf, h.logOffset)
	}
	return f, nil
}

// decodeDirectory locates every subfile through the directory table that
// starts at offset. Each subfile describes its own point count.
func decodeDirectory(buf []byte, offset, nsub int, flags Flags) ([]Subfile, error) {
	dir := cursor.New(buf).At(offset)
	if !dir.Has(nsub * directoryEntrySize) {
		return nil, corrupt("subfile directory", dir.Skip(nsub*directoryEntrySize))
	}

	params := subfileParams{
		perSubfileX: true,
		shortY:      flags.ShortY,
		multi:       flags.Multi,
	}
	subs := make([]Subfile, 0, nsub)
	for i := 0; i < nsub; i++ {
		pos, _ := dir.Int32()
		size, _ := dir.Int32()
		_, _ = dir.Float32()

		if pos < 0 || size < 0 || int64(pos)+int64(size) > int64(len(buf)) {
			return nil, fmt.Errorf("%w: directory entry %d range [%d,+%d) outside %d bytes", ErrCorruptFile, i, pos, size, len(buf))
		}
		sub, err := decodeSubfile(buf[pos:int(pos)+int(size)], params)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// decodeSequential walks nsub back-to-back subfiles starting at start.
func decodeSequential(buf []byte, start, nsub int, params subfileParams) ([]Subfile, error) {
	c := cursor.New(buf).At(start)
	subs := make([]Subfile, 0, nsub)
	for i := 0; i < nsub; i++ {
		head, err := c.Peek(subheaderSize)
		if err != nil {
			return nil, corrupt(fmt.Sprintf("subfile %d header", i), err)
		}
		sh, _ := readSubheader(cursor.New(head))

		data, err := c.Bytes(params.span(sh))
		if err != nil {
			return nil, corrupt(fmt.Sprintf("subfile %d", i), err)
		}
		sub, err := decodeSubfile(data, params)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}
