// Package spc decodes Galactic/Thermo SPC spectroscopy files into numeric
// traces, axis labels and instrument log text.
//
// Three layouts share the .spc extension: the little-endian "new" format
// (version tag 0x4B), the legacy "old" format (0x4D) and a Shimadzu export
// (0xCF) that is only understood heuristically. The big-endian new format
// (0x4C) is recognised and rejected.
package spc

import "fmt"

// Variant identifies which on-disk layout a file used.
type Variant int

const (
	VariantNewLSB Variant = iota + 1
	VariantOld
	VariantShimadzu
)

func (v Variant) String() string {
	switch v {
	case VariantNewLSB:
		return "new-lsb"
	case VariantOld:
		return "old"
	case VariantShimadzu:
		return "shimadzu"
	default:
		return fmt.Sprintf("variant(%d)", int(v))
	}
}

// FloatExponent is the exponent value that marks samples stored as IEEE
// floats rather than scaled integers.
const FloatExponent = 128

// XLayout describes where x values come from. It is one of Generated,
// GlobalExplicit or PerSubfile.
type XLayout interface {
	Kind() string
	isXLayout()
}

// Generated x values are evenly spaced between First and Last.
type Generated struct {
	First  float64
	Last   float64
	Points int
}

// GlobalExplicit x values were read once from the file and are shared by all
// subfiles.
type GlobalExplicit struct {
	X []float64
}

// PerSubfile means every subfile owns its own x array.
type PerSubfile struct{}

func (Generated) Kind() string      { return "generated" }
func (GlobalExplicit) Kind() string { return "global" }
func (PerSubfile) Kind() string     { return "per-subfile" }

func (Generated) isXLayout()      {}
func (GlobalExplicit) isXLayout() {}
func (PerSubfile) isXLayout()     {}

// Values computes the x array. The last value is exactly Last.
func (g Generated) Values() []float64 {
	if g.Points <= 0 {
		return nil
	}
	x := make([]float64, g.Points)
	if g.Points == 1 {
		x[0] = g.First
		return x
	}
	step := (g.Last - g.First) / float64(g.Points-1)
	for i := range x {
		x[i] = float64(i)*step + g.First
	}
	x[g.Points-1] = g.Last
	return x
}

// Spacing returns the distance between neighbouring x values. It is only
// defined for more than one point.
func (g Generated) Spacing() (float64, bool) {
	if g.Points <= 1 {
		return 0, false
	}
	return (g.Last - g.First) / float64(g.Points-1), true
}

// Date is the acquisition timestamp stored in the main header.
type Date struct {
	Year   int `json:"year"`
	Month  int `json:"month"`
	Day    int `json:"day"`
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// unpackDate splits the packed new-format date word.
func unpackDate(d uint32) Date {
	return Date{
		Year:   int(d >> 20),
		Month:  int((d >> 16) % 16),
		Day:    int((d >> 11) % 32),
		Hour:   int((d >> 6) % 32),
		Minute: int(d % 64),
	}
}

// Header holds the main header fields kept for diagnostics. Fields that a
// variant does not carry are left zero.
type Header struct {
	Version        byte    `json:"version"`
	Experiment     byte    `json:"experiment"`
	ExperimentType string  `json:"experiment_type"`
	Exponent       int     `json:"exponent"`
	Points         int     `json:"points"`
	First          float64 `json:"first"`
	Last           float64 `json:"last"`
	SubfileCount   int     `json:"subfile_count"`
	XType          byte    `json:"xtype"`
	YType          byte    `json:"ytype"`
	ZType          byte    `json:"ztype"`
	Post           byte    `json:"post"`
	Date           Date    `json:"date"`
	Resolution     string  `json:"resolution"`
	Source         string  `json:"source"`
	PeakPoint      int     `json:"peak_point"`
	Comment        string  `json:"comment"`
	LogOffset      uint32  `json:"log_offset"`
	Mods           uint32  `json:"mods"`
	Processing     byte    `json:"processing"`
	Level          byte    `json:"level"`
	SampleInterval uint16  `json:"sample_interval"`
	Factor         float32 `json:"factor"`
	Method         string  `json:"method"`
	ZIncrement     float32 `json:"z_increment"`
	WPlanes        uint32  `json:"w_planes"`
	WIncrement     float32 `json:"w_increment"`
	WType          byte    `json:"wtype"`
	Scans          int     `json:"scans"`
}

// Subfile is one decoded trace.
type Subfile struct {
	Index    int       `json:"index"`
	Flags    byte      `json:"flags"`
	Exponent int       `json:"exponent"`
	Points   int       `json:"points"`
	Time     float32   `json:"time"`
	NextTime float32   `json:"next_time"`
	Noise    float32   `json:"noise"`
	Scans    int       `json:"scans"`
	WLevel   float32   `json:"w_level"`
	X        []float64 `json:"x,omitempty"`
	Y        []float64 `json:"y"`
}

// AxisLabels are the display units of each axis.
type AxisLabels struct {
	X string `json:"x"`
	Y string `json:"y"`
	Z string `json:"z"`
}

// File is a fully decoded SPC file. A File is only ever returned complete;
// it is not modified after Decode returns.
type File struct {
	Variant  Variant
	Flags    Flags
	Header   Header
	Layout   XLayout
	Subfiles []Subfile
	Labels   AxisLabels
	Log      *LogBlock

	// LogErr records why the log block was dropped, if it was.
	LogErr error
}

// X returns the x array shared by all subfiles, or nil when every subfile
// carries its own.
func (f *File) X() []float64 {
	switch l := f.Layout.(type) {
	case Generated:
		return l.Values()
	case GlobalExplicit:
		return l.X
	default:
		return nil
	}
}

// Spacing returns the generated x step when the layout is Generated.
func (f *File) Spacing() (float64, bool) {
	if g, ok := f.Layout.(Generated); ok {
		return g.Spacing()
	}
	return 0, false
}
