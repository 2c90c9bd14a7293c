package spc

import (
	"fmt"
	"math"

	"github.com/spectriclabs/spc-data-service/internal/spc/cursor"
)

const (
	oldHeaderSize = 256
	// The first subheader occupies the last 32 bytes of the old header.
	oldFirstSubfile = oldHeaderSize - subheaderSize
)

type oldHeader struct {
	flags      byte
	version    byte
	exponent   int16
	points     float32
	first      float32
	last       float32
	xtype      byte
	ytype      byte
	date       Date
	resolution []byte
	peakPoint  int16
	scans      int16
	comment    []byte
	catxt      []byte
}

func readOldHeader(c *cursor.Cursor) (oldHeader, error) {
	var h oldHeader
	if !c.Has(oldFirstSubfile) {
		return h, corrupt("old main header", c.Skip(oldFirstSubfile))
	}

	var year int16
	var month, day, hour, minute byte
	h.flags, _ = c.Uint8()
	h.version, _ = c.Uint8()
	h.exponent, _ = c.Int16()
	h.points, _ = c.Float32()
	h.first, _ = c.Float32()
	h.last, _ = c.Float32()
	h.xtype, _ = c.Uint8()
	h.ytype, _ = c.Uint8()
	year, _ = c.Int16()
	month, _ = c.Uint8()
	day, _ = c.Uint8()
	hour, _ = c.Uint8()
	minute, _ = c.Uint8()
	h.resolution, _ = c.Bytes(8)
	h.peakPoint, _ = c.Int16()
	h.scans, _ = c.Int16()
	_ = c.Skip(28)
	h.comment, _ = c.Bytes(130)
	h.catxt, _ = c.Bytes(30)

	h.date = Date{
		Year:   int(year),
		Month:  int(month),
		Day:    int(day),
		Hour:   int(hour),
		Minute: int(minute),
	}
	return h, nil
}

// pointCount converts the old header's float point count, treating
// anything that is not a usable count as zero.
func (h oldHeader) pointCount() int {
	p := float64(h.points)
	if math.IsNaN(p) || p <= 0 || p > math.MaxInt32 {
		return 0
	}
	return int(p)
}

// decodeOld reads subfiles until the buffer cannot hold another one, as the
// old layout has no subfile count.
func decodeOld(buf []byte) (*File, error) {
	c := cursor.New(buf)
	h, err := readOldHeader(c)
	if err != nil {
		return nil, err
	}
	flags := ParseFlags(h.flags)
	points := h.pointCount()

	exponent := int(h.exponent)
	params := subfileParams{
		exponent: exponent,
		shortY:   flags.ShortY,
		multi:    flags.Multi,
		order:    orderWordSwapped,
	}

	var subs []Subfile
	for c.Has(subheaderSize) {
		head, _ := c.Peek(subheaderSize)
		sh, _ := readSubheader(cursor.New(head))

		p := params
		p.points = points
		if sh.points > 0 {
			p.points = int(sh.points)
		}
		if p.points <= 0 {
			break
		}
		span := p.span(sh)
		if !c.Has(span) {
			break
		}

		data, _ := c.Bytes(span)
		sub, err := decodeSubfile(data, p)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	if len(subs) == 0 {
		return nil, fmt.Errorf("%w: no complete subfile after the old header", ErrCorruptFile)
	}

	return &File{
		Variant: VariantOld,
		Flags:   flags,
		Header: Header{
			Version:      h.version,
			Exponent:     exponent,
			Points:       points,
			First:        float64(h.first),
			Last:         float64(h.last),
			SubfileCount: len(subs),
			XType:        h.xtype,
			YType:        h.ytype,
			Date:         h.date,
			Resolution:   cString(h.resolution),
			PeakPoint:    int(h.peakPoint),
			Comment:      comment(h.comment),
			Scans:        int(h.scans),
		},
		Layout:   Generated{First: float64(h.first), Last: float64(h.last), Points: points},
		Subfiles: subs,
		Labels:   resolveLabels(h.xtype, h.ytype, 0, flags.TextLabels || h.xtype == oldTextLabelsXType, h.catxt),
	}, nil
}
