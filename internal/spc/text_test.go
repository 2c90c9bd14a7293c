package spc

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTextGolden(t *testing.T) {
	cases := []struct {
		name    string
		fixture func(*testing.T) []byte
		golden  string
	}{
		{"generated x", generatedFixture, "generated.txt"},
		{"shared explicit x", globalXFixture, "global_x.txt"},
		{"per-subfile x", sequentialFixture, "per_subfile.txt"},
		{"per-subfile x through directory", directoryFixture, "per_subfile.txt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			want, err := os.ReadFile(filepath.Join("testdata", tc.golden))
			require.NoError(t, err)

			path := filepath.Join(t.TempDir(), "fixture.spc")
			require.NoError(t, os.WriteFile(path, tc.fixture(t), 0o644))
			f, err := Decode(path)
			require.NoError(t, err)

			got, err := f.Text("\t", "\n")
			require.NoError(t, err)
			assert.Equal(t, string(want), got)
		})
	}
}

func TestWriteTextDelimiters(t *testing.T) {
	f, err := DecodeBytes(generatedFixture(t))
	require.NoError(t, err)

	got, err := f.Text(",", "\r\n")
	require.NoError(t, err)
	assert.Equal(t, "400.0,1.0\r\n450.0,2.0\r\n500.0,3.0\r\n", got)
}

func TestWriteTextShortColumn(t *testing.T) {
	f := &File{
		Layout: GlobalExplicit{X: []float64{1, 2, 3}},
		Subfiles: []Subfile{
			{Y: []float64{1, 2, 3}},
			{Index: 1, Y: []float64{1}},
		},
	}
	_, err := f.Text("\t", "\n")
	assert.ErrorIs(t, err, ErrCorruptFile)
}

func TestFormatFloat(t *testing.T) {
	cases := map[float64]string{
		0:                 "0.0",
		1:                 "1.0",
		-2:                "-2.0",
		0.1:               "0.1",
		1.5:               "1.5",
		0.0001:            "0.0001",
		0.00001:           "1e-05",
		1.25e-7:           "1.25e-07",
		123456789012345.0: "123456789012345.0",
		1e15:              "1000000000000000.0",
		1e16:              "1e+16",
		1.5e16:            "1.5e+16",
		4000.5:            "4000.5",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatFloat(in), "input %v", in)
	}

	var single float32 = 0.1
	assert.Equal(t, "0.10000000149011612", FormatFloat(float64(single)))
	assert.Equal(t, "nan", FormatFloat(math.NaN()))
	assert.Equal(t, "inf", FormatFloat(math.Inf(1)))
	assert.Equal(t, "-inf", FormatFloat(math.Inf(-1)))
	assert.Equal(t, "-0.0", FormatFloat(math.Copysign(0, -1)))
}
