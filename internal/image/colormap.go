package image

import (
	"fmt"
	"math"
)

// Pixel is a palette colour. Control points give Position and channels in
// percent; generated palettes hold 0-255 channels.
type Pixel struct {
	Position float64
	Red      float64
	Green    float64
	Blue     float64
}

// DefaultColormap is used when a request names none.
const DefaultColormap = "RampColormap"

var controlPoints = map[string][]Pixel{
	"Greyscale": {
		{0, 0, 0, 0},
		{60, 50, 50, 50},
		{100, 100, 100, 100},
	},
	"RampColormap": {
		{0, 0, 0, 15},
		{10, 0, 0, 50},
		{31, 0, 65, 75},
		{50, 0, 80, 0},
		{70, 75, 80, 0},
		{83, 100, 60, 0},
		{100, 100, 0, 0},
	},
	"ColorWheel": {
		{0, 100, 100, 0},
		{20, 0, 80, 40},
		{30, 0, 100, 100},
		{50, 10, 10, 0},
		{65, 100, 0, 0},
		{88, 100, 40, 0},
		{100, 100, 100, 0},
	},
	"Spectrum": {
		{0, 0, 75, 0},
		{22, 0, 90, 90},
		{37, 0, 0, 85},
		{49, 90, 0, 85},
		{68, 90, 0, 0},
		{80, 90, 90, 0},
		{100, 95, 95, 95},
	},
	"calewhite": {
		{0, 100, 100, 100},
		{16.666, 0, 0, 100},
		{33.333, 0, 100, 100},
		{50, 0, 100, 0},
		{66.666, 100, 100, 0},
		{83.333, 100, 0, 0},
		{100, 100, 0, 100},
	},
	"HotDesat": {
		{0, 27.84, 27.84, 85.88},
		{14.2857, 0, 0, 35.69},
		{28.571, 0, 100, 100},
		{42.857, 0, 49.8, 0},
		{57.14286, 100, 100, 0},
		{71.42857, 100, 37.65, 0},
		{85.7143, 41.96, 0, 0},
		{100, 87.84, 29.8, 29.8},
	},
	"Sunset": {
		{0, 10, 0, 23},
		{18, 34, 0, 60},
		{36, 58, 20, 47},
		{55, 74, 20, 28},
		{72, 90, 43, 0},
		{87, 100, 72, 0},
		{100, 100, 100, 76},
	},
}

// GetColorControlPoints returns the control points of a named colormap.
func GetColorControlPoints(colorMap string) ([]Pixel, error) {
	if colorMap == "" {
		colorMap = DefaultColormap
	}
	points, ok := controlPoints[colorMap]
	if !ok {
		return nil, fmt.Errorf("unknown colormap %q", colorMap)
	}
	return points, nil
}

// MakeColorPalette interpolates numColors colours between the control
// points.
func MakeColorPalette(controlColors []Pixel, numColors int) []Pixel {
	outColors := make([]Pixel, numColors)
	if len(controlColors) == 0 || numColors == 0 {
		return outColors
	}
	colorsPerPosition := float64(numColors) / 100.0
	scale := func(p Pixel, i int) Pixel {
		return Pixel{
			Position: float64(i),
			Red:      math.Round(p.Red * 255.0 / 100.0),
			Green:    math.Round(p.Green * 255.0 / 100.0),
			Blue:     math.Round(p.Blue * 255.0 / 100.0),
		}
	}

	lastPoint := controlColors[0]
	lastIndexFilled := 0
	outColors[0] = scale(lastPoint, 0)
	for _, controlColor := range controlColors[1:] {
		redDiff := (controlColor.Red - lastPoint.Red) * 255.0 / 100
		greenDiff := (controlColor.Green - lastPoint.Green) * 255.0 / 100
		blueDiff := (controlColor.Blue - lastPoint.Blue) * 255.0 / 100
		startRange := lastIndexFilled + 1
		endRange := int(math.Round(controlColor.Position * colorsPerPosition))
		if endRange > numColors {
			endRange = numColors
		}
		for j := startRange; j < endRange; j++ {
			percentRange := (float64(j+1) - float64(startRange)) / float64(endRange-startRange)
			outColors[j] = Pixel{
				Position: float64(j),
				Red:      math.Round(percentRange*redDiff + lastPoint.Red*255.0/100),
				Green:    math.Round(percentRange*greenDiff + lastPoint.Green*255.0/100),
				Blue:     math.Round(percentRange*blueDiff + lastPoint.Blue*255.0/100),
			}
			lastIndexFilled = j
		}
		lastPoint = controlColor
	}
	// Fill anything the rounding of the final position left behind.
	for j := lastIndexFilled + 1; j < numColors; j++ {
		outColors[j] = scale(lastPoint, j)
	}
	return outColors
}
