package image

import (
	"encoding/binary"
	"math"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetColorControlPoints(t *testing.T) {
	expected := []struct {
		Input  string
		Output []Pixel
	}{
		{
			Input: "Greyscale",
			Output: []Pixel{
				{0, 0, 0, 0},
				{60, 50, 50, 50},
				{100, 100, 100, 100},
			},
		},
		{
			Input: "",
			Output: []Pixel{
				{0, 0, 0, 15},
				{10, 0, 0, 50},
				{31, 0, 65, 75},
				{50, 0, 80, 0},
				{70, 75, 80, 0},
				{83, 100, 60, 0},
				{100, 100, 0, 0},
			},
		},
	}
	for _, exp := range expected {
		result, err := GetColorControlPoints(exp.Input)
		require.NoError(t, err)
		if !reflect.DeepEqual(result, exp.Output) {
			t.Errorf(
				"GetColorControlPoints(%s) returned %v instead of %v",
				exp.Input,
				result,
				exp.Output,
			)
		}
	}

	_, err := GetColorControlPoints("Plasma")
	assert.Error(t, err)
}

func TestMakeColorPalette(t *testing.T) {
	greyscale, err := GetColorControlPoints("Greyscale")
	require.NoError(t, err)

	palette := MakeColorPalette(greyscale, 10)
	require.Len(t, palette, 10)

	want := []float64{0, 26, 51, 77, 102, 128, 159, 191, 223, 255}
	for i, p := range palette {
		assert.Equal(t, want[i], p.Red, "red %d", i)
		assert.Equal(t, p.Red, p.Green)
		assert.Equal(t, p.Red, p.Blue)
		assert.Equal(t, float64(i), p.Position)
	}

	for name := range controlPoints {
		points, _ := GetColorControlPoints(name)
		palette := MakeColorPalette(points, numColors)
		last := points[len(points)-1]
		assert.Equal(t, math.Round(last.Red*2.55), palette[numColors-1].Red, name)
	}
}

func TestWaterfall(t *testing.T) {
	rows := [][]float64{{1, 2}, {3, 4}, {5, 6}, {7, 8}}
	assert.Equal(t, []float64{2, 3, 6, 7}, Waterfall(rows, 2, 2, "mean"))
	assert.Equal(t, []float64{1, 2, 1, 2}, Waterfall(rows[:1], 2, 2, "mean"))
	assert.Equal(t, []float64{4, 8}, Waterfall(rows, 1, 2, "max"))
	assert.Equal(t, []float64{0, 0}, Waterfall(nil, 2, 1, "mean"))
}

func TestCreateOutputRGBA(t *testing.T) {
	out, err := CreateOutput([]float64{0, 10, math.NaN()}, "RGBA", 0, 10, "Greyscale")
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0, 0, 0, 255,
		255, 255, 255, 255,
		0, 0, 0, 255,
	}, out)

	flat, err := CreateOutput([]float64{5, 6}, "RGBA", 3, 3, "Greyscale")
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 255, 0, 0, 0, 255}, flat)

	_, err = CreateOutput([]float64{1}, "RGBA", 0, 1, "Plasma")
	assert.Error(t, err)
}

func TestCreateOutputSamples(t *testing.T) {
	out, err := CreateOutput([]float64{1.5}, "SD", 0, 0, "")
	require.NoError(t, err)
	assert.Equal(t, 1.5, math.Float64frombits(binary.LittleEndian.Uint64(out)))

	out, err = CreateOutput([]float64{1.5, -2}, "SF", 0, 0, "")
	require.NoError(t, err)
	require.Len(t, out, 8)
	assert.Equal(t, float32(-2), math.Float32frombits(binary.LittleEndian.Uint32(out[4:])))

	out, err = CreateOutput([]float64{2.6, -3}, "SI", 0, 0, "")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x03, 0x00, 0xfd, 0xff}, out)

	_, err = CreateOutput([]float64{1}, "SX", 0, 0, "")
	assert.Error(t, err)
	_, err = CreateOutput([]float64{1}, "CF", 0, 0, "")
	assert.Error(t, err)
}
