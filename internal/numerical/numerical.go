package numerical

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// Transforms understood by Transform.
var Transforms = []string{"mean", "max", "min", "absmax", "first"}

// ValidTransform reports whether name is one of Transforms.
func ValidTransform(name string) bool {
	for _, t := range Transforms {
		if t == name {
			return true
		}
	}
	return false
}

func SuppressNaN(num float64) float64 {
	if math.IsNaN(num) {
		return 0
	}
	return num
}

// Transform reduces dataIn to a single value.
func Transform(dataIn []float64, transform string) float64 {
	if len(dataIn) == 0 {
		return 0
	}
	switch transform {
	case "mean":
		return SuppressNaN(stat.Mean(dataIn, nil))
	case "max":
		return SuppressNaN(floats.Max(dataIn))
	case "min":
		return SuppressNaN(floats.Min(dataIn))
	case "absmax":
		hi, lo := floats.Max(dataIn), floats.Min(dataIn)
		if math.Abs(lo) > math.Abs(hi) {
			return SuppressNaN(lo)
		}
		return SuppressNaN(hi)
	case "first":
		return SuppressNaN(dataIn[0])
	default:
		return 0
	}
}

// DownSampleLineInX decimates or expands datain into row outLineNum of
// outData, which is outxsize wide.
func DownSampleLineInX(datain []float64, outxsize int, transform string, outData []float64, outLineNum int) {
	if outxsize <= 0 || len(datain) == 0 {
		return
	}
	xelementsperoutput := float64(len(datain)) / float64(outxsize)
	if xelementsperoutput > 1 {
		xElementsPerOutputCeil := int(math.Ceil(xelementsperoutput))
		for x := 0; x < outxsize; x++ {
			var startelement int
			var endelement int
			if x != (outxsize - 1) {
				startelement = int(math.Round(float64(x) * xelementsperoutput))
				endelement = startelement + xElementsPerOutputCeil
				if endelement > len(datain) {
					endelement = len(datain)
				}
			} else {
				endelement = len(datain)
				startelement = endelement - xElementsPerOutputCeil
			}
			outData[outLineNum*outxsize+x] = Transform(datain[startelement:endelement], transform)
		}
	} else { // Expand Data by repeating input values into output
		for x := 0; x < outxsize; x++ {
			index := int(math.Floor(float64(x) * xelementsperoutput))
			outData[outLineNum*outxsize+x] = datain[index]
		}
	}
}

// DownSample returns datain resampled to outxsize values.
func DownSample(datain []float64, outxsize int, transform string) []float64 {
	if outxsize <= 0 {
		return nil
	}
	out := make([]float64, outxsize)
	DownSampleLineInX(datain, outxsize, transform, out, 0)
	return out
}

// DownSampleLineInY collapses the rows of datain, each outxsize wide, into
// one row.
func DownSampleLineInY(datain []float64, outxsize int, transform string) []float64 {
	numLines := len(datain) / outxsize
	processSlice := make([]float64, numLines)
	outData := make([]float64, outxsize)
	for x := 0; x < outxsize; x++ {
		for y := 0; y < numLines; y++ {
			processSlice[y] = datain[y*outxsize+x]
		}
		outData[x] = Transform(processSlice, transform)
	}
	return outData
}

// Summary describes one trace.
type Summary struct {
	Points int     `json:"points"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	ArgMin int     `json:"argmin"`
	ArgMax int     `json:"argmax"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Sum    float64 `json:"sum"`
	// Area is the trapezoidal integral of y over x, present only when x is
	// monotonic.
	Area *float64 `json:"area,omitempty"`
}

// Summarize computes statistics of y. x may be nil.
func Summarize(x, y []float64) Summary {
	s := Summary{Points: len(y)}
	if len(y) == 0 {
		return s
	}
	s.ArgMin = floats.MinIdx(y)
	s.ArgMax = floats.MaxIdx(y)
	s.Min = y[s.ArgMin]
	s.Max = y[s.ArgMax]
	s.Sum = floats.Sum(y)
	if len(y) > 1 {
		s.Mean, s.StdDev = stat.MeanStdDev(y, nil)
	} else {
		s.Mean = y[0]
	}
	if area, ok := trapezoid(x, y); ok {
		s.Area = &area
	}
	return s
}

func trapezoid(x, y []float64) (float64, bool) {
	if len(x) != len(y) || len(x) < 2 {
		return 0, false
	}
	if sort.Float64sAreSorted(x) {
		return integrate.Trapezoidal(x, y), true
	}
	rx, ry := reversed(x), reversed(y)
	if !sort.Float64sAreSorted(rx) {
		return 0, false
	}
	return -integrate.Trapezoidal(rx, ry), true
}

func reversed(in []float64) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}

// Range returns the smallest and largest values over all rows, ignoring
// NaN. Both are 0 when there is no finite value.
func Range(rows ...[]float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, row := range rows {
		for _, v := range row {
			if math.IsNaN(v) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if lo > hi {
		return 0, 0
	}
	return lo, hi
}
