// Package image renders multi-subfile SPC data as waterfall rasters.
package image

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/spectriclabs/spc-data-service/internal/numerical"
)

// Output formats accepted by CreateOutput besides RGBA. The second letter
// selects the sample type, following the SB/SI/SL/SF/SD naming.
var OutputFormats = []string{"RGBA", "SB", "SI", "SL", "SF", "SD"}

const numColors = 1000

// Waterfall arranges rows (one per subfile) into an outysize by outxsize
// grid, decimating or repeating along both axes with transform.
func Waterfall(rows [][]float64, outxsize, outysize int, transform string) []float64 {
	outData := make([]float64, outxsize*outysize)
	if len(rows) == 0 || outxsize <= 0 || outysize <= 0 {
		return outData
	}

	yelementsperoutput := float64(len(rows)) / float64(outysize)
	for y := 0; y < outysize; y++ {
		if yelementsperoutput <= 1 {
			index := int(math.Floor(float64(y) * yelementsperoutput))
			numerical.DownSampleLineInX(rows[index], outxsize, transform, outData, y)
			continue
		}

		span := int(math.Ceil(yelementsperoutput))
		start := int(math.Round(float64(y) * yelementsperoutput))
		if y == outysize-1 || start+span > len(rows) {
			start = len(rows) - span
		}
		block := make([]float64, span*outxsize)
		for i := 0; i < span; i++ {
			numerical.DownSampleLineInX(rows[start+i], outxsize, transform, block, i)
		}
		copy(outData[y*outxsize:], numerical.DownSampleLineInY(block, outxsize, transform))
	}
	return outData
}

// CreateOutput encodes dataIn as RGBA pixels through the colormap, or as
// little-endian samples for the S? formats.
func CreateOutput(dataIn []float64, fileFormat string, zmin, zmax float64, colorMap string) ([]byte, error) {
	dataOut := new(bytes.Buffer)
	if fileFormat == "RGBA" {
		controlColors, err := GetColorControlPoints(colorMap)
		if err != nil {
			return nil, err
		}
		colorPalette := MakeColorPalette(controlColors, numColors)
		dataOut.Grow(4 * len(dataIn))

		colorsPerSpan := (zmax - zmin) / float64(numColors)
		for _, v := range dataIn {
			colorIndex := 0.0
			if zmax != zmin && !math.IsNaN(v) {
				colorIndex = math.Round((v-zmin)/colorsPerSpan) - 1
				// Keep colorIndex within the colorPalette.
				colorIndex = math.Min(math.Max(colorIndex, 0), float64(numColors-1))
			}
			p := colorPalette[int(colorIndex)]
			dataOut.Write([]byte{byte(p.Red), byte(p.Green), byte(p.Blue), 255})
		}
		return dataOut.Bytes(), nil
	}

	if len(fileFormat) != 2 || fileFormat[0] != 'S' {
		return nil, fmt.Errorf("unsupported output format %q", fileFormat)
	}
	var numSlice any
	switch fileFormat[1] {
	case 'B':
		s := make([]int8, len(dataIn))
		for i, v := range dataIn {
			s[i] = int8(math.Round(v))
		}
		numSlice = s
	case 'I':
		s := make([]int16, len(dataIn))
		for i, v := range dataIn {
			s[i] = int16(math.Round(v))
		}
		numSlice = s
	case 'L':
		s := make([]int32, len(dataIn))
		for i, v := range dataIn {
			s[i] = int32(math.Round(v))
		}
		numSlice = s
	case 'F':
		s := make([]float32, len(dataIn))
		for i, v := range dataIn {
			s[i] = float32(v)
		}
		numSlice = s
	case 'D':
		numSlice = dataIn
	default:
		return nil, fmt.Errorf("unsupported output format %q", fileFormat)
	}
	if err := binary.Write(dataOut, binary.LittleEndian, numSlice); err != nil {
		return nil, err
	}
	return dataOut.Bytes(), nil
}
