package spc

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagBits(t *testing.T) {
	assert.Equal(t, [8]bool{false, true, false, false, false, false, false, true}, FlagBits(0x41))
	assert.Equal(t, [8]bool{}, FlagBits(0x00))
	assert.Equal(t, [8]bool{true, true, true, true, true, true, true, true}, FlagBits(0xFF))
}

func TestParseFlags(t *testing.T) {
	f := ParseFlags(0x85)
	assert.True(t, f.ShortY)
	assert.True(t, f.Multi)
	assert.True(t, f.ExplicitX)
	assert.False(t, f.ExperimentByte)
	assert.False(t, f.PerSubfileX)
	assert.False(t, f.TextLabels)
	assert.Equal(t, byte(0x85), f.Raw)
}

func TestGeneratedValues(t *testing.T) {
	t.Run("ascending", func(t *testing.T) {
		x := Generated{First: 400, Last: 4000, Points: 1801}.Values()
		require.Len(t, x, 1801)
		assert.Equal(t, 400.0, x[0])
		assert.Equal(t, 4000.0, x[1800])
		for i := 1; i < len(x); i++ {
			assert.Greater(t, x[i], x[i-1])
		}
	})

	t.Run("descending", func(t *testing.T) {
		x := Generated{First: 10, Last: -3.3, Points: 7}.Values()
		assert.Equal(t, 10.0, x[0])
		assert.Equal(t, -3.3, x[6])
		for i := 1; i < len(x); i++ {
			assert.Less(t, x[i], x[i-1])
		}
	})

	t.Run("spacing", func(t *testing.T) {
		s, ok := Generated{First: 0, Last: 10, Points: 11}.Spacing()
		assert.True(t, ok)
		assert.Equal(t, 1.0, s)

		_, ok = Generated{First: 0, Last: 10, Points: 1}.Spacing()
		assert.False(t, ok)
	})
}

func TestUnpackDate(t *testing.T) {
	d := unpackDate(2016<<20 | 7<<16 | 14<<11 | 9<<6 | 30)
	assert.Equal(t, Date{Year: 2016, Month: 7, Day: 14, Hour: 9, Minute: 30}, d)
}

func TestSwappedWord(t *testing.T) {
	assert.Equal(t, uint32(1<<24+2<<16+3<<8+0), swappedWord([]byte{0x02, 0x01, 0x00, 0x03}))
}

func TestDecodeGenerated(t *testing.T) {
	h := testHeader(0x00, 32, 3, 1)
	h.First, h.Last = 400, 500
	h.Experiment = 4
	h.XType, h.YType = 1, 2
	h.Date = 2020<<20 | 3<<16 | 2<<11 | 1<<6 | 5
	textField(h.Comment[:], "  baseline \t corrected\x00junk")
	textField(h.Source[:], "FTIR")
	buf := pack(t, h, subheaderFixture{Exponent: 32}, []int32{1, 2, 3})

	f, err := DecodeBytes(buf)
	require.NoError(t, err)

	assert.Equal(t, VariantNewLSB, f.Variant)
	assert.Equal(t, Generated{First: 400, Last: 500, Points: 3}, f.Layout)
	assert.Equal(t, []float64{400, 450, 500}, f.X())
	require.Len(t, f.Subfiles, 1)
	assert.Equal(t, []float64{1, 2, 3}, f.Subfiles[0].Y)
	assert.Nil(t, f.Subfiles[0].X)
	assert.Equal(t, 32, f.Subfiles[0].Exponent)

	assert.Equal(t, "baseline corrected", f.Header.Comment)
	assert.Equal(t, "FTIR", f.Header.Source)
	assert.Equal(t, "FT-IR, FT-NIR, FT-Raman Spectrum or Igram", f.Header.ExperimentType)
	assert.Equal(t, Date{Year: 2020, Month: 3, Day: 2, Hour: 1, Minute: 5}, f.Header.Date)
	assert.Equal(t, AxisLabels{X: "Wavenumber (cm-1)", Y: "Absorbance", Z: "Arbitrary"}, f.Labels)
	assert.Nil(t, f.Log)
	assert.NoError(t, f.LogErr)
}

func TestDecodeScaling(t *testing.T) {
	h := testHeader(0x00, 20, 2, 1)
	f, err := DecodeBytes(pack(t, h, subheaderFixture{}, []int32{1 << 12, -3 << 12}))
	require.NoError(t, err)
	assert.Equal(t, []float64{1, -3}, f.Subfiles[0].Y)
}

func TestDecodeFloatSamples(t *testing.T) {
	want := []float32{1.5, -2.25, 3.1415927, 1e-7}
	h := testHeader(0x00, -128, uint32(len(want)), 1)
	f, err := DecodeBytes(pack(t, h, subheaderFixture{Exponent: -128}, want))
	require.NoError(t, err)

	sub := f.Subfiles[0]
	assert.Equal(t, FloatExponent, sub.Exponent)
	require.Len(t, sub.Y, len(want))
	for i, v := range want {
		assert.Equal(t, math.Float32bits(v), math.Float32bits(float32(sub.Y[i])))
		assert.Equal(t, float64(v), sub.Y[i])
	}
}

func TestDecodeShortY(t *testing.T) {
	h := testHeader(0x05, 0, 2, 2)
	buf := pack(t, h,
		subheaderFixture{Exponent: 16}, []int16{7, -8},
		subheaderFixture{Exponent: 17, Index: 1}, []int16{7, -8},
	)
	f, err := DecodeBytes(buf)
	require.NoError(t, err)
	require.Len(t, f.Subfiles, 2)
	assert.Equal(t, []float64{7, -8}, f.Subfiles[0].Y)
	assert.Equal(t, []float64{14, -16}, f.Subfiles[1].Y)
}

func TestExponentPrecedence(t *testing.T) {
	t.Run("single file uses the global exponent", func(t *testing.T) {
		h := testHeader(0x00, 33, 1, 1)
		f, err := DecodeBytes(pack(t, h, subheaderFixture{Exponent: 1}, []int32{5}))
		require.NoError(t, err)
		assert.Equal(t, []float64{10}, f.Subfiles[0].Y)
	})

	t.Run("multi file uses the subfile exponent", func(t *testing.T) {
		h := testHeader(0x04, 33, 1, 1)
		f, err := DecodeBytes(pack(t, h, subheaderFixture{Exponent: 32}, []int32{5}))
		require.NoError(t, err)
		assert.Equal(t, []float64{5}, f.Subfiles[0].Y)
	})

	t.Run("out of range resets to zero", func(t *testing.T) {
		p := subfileParams{exponent: -128}
		_, exp := p.resolve(subheader{})
		assert.Equal(t, 0, exp)
	})
}

func TestDecodeGlobalExplicitX(t *testing.T) {
	f, err := DecodeBytes(globalXFixture(t))
	require.NoError(t, err)

	assert.Equal(t, GlobalExplicit{X: []float64{1.5, 2.5}}, f.Layout)
	require.Len(t, f.Subfiles, 2)
	assert.Equal(t, []float64{1, 2}, f.Subfiles[0].Y)
	assert.Equal(t, []float64{3, 4}, f.Subfiles[1].Y)
	assert.Equal(t, 1, f.Subfiles[1].Index)
	_, ok := f.Spacing()
	assert.False(t, ok)
}

func TestDirectoryMatchesSequential(t *testing.T) {
	seq, err := DecodeBytes(sequentialFixture(t))
	require.NoError(t, err)
	dir, err := DecodeBytes(directoryFixture(t))
	require.NoError(t, err)

	assert.Equal(t, PerSubfile{}, seq.Layout)
	assert.Equal(t, PerSubfile{}, dir.Layout)
	assert.Nil(t, seq.X())
	require.Len(t, seq.Subfiles, len(perSubfileTraces))
	require.Len(t, dir.Subfiles, len(perSubfileTraces))
	for i := range perSubfileTraces {
		assert.Equal(t, seq.Subfiles[i].Y, dir.Subfiles[i].Y)
		assert.Equal(t, seq.Subfiles[i].X, dir.Subfiles[i].X)
	}
	assert.Equal(t, []float64{400, 500}, dir.Subfiles[1].X)
	assert.Equal(t, []float64{-1, -2}, dir.Subfiles[1].Y)
}

func TestDirectoryEntryOutOfRange(t *testing.T) {
	buf := directoryFixture(t)
	// Point the last entry's size past the end of the file.
	size := buf[len(buf)-8:]
	size[0], size[1], size[2], size[3] = 0xff, 0xff, 0x00, 0x00

	_, err := DecodeBytes(buf)
	assert.ErrorIs(t, err, ErrCorruptFile)
}

func TestDecodeZeroPoints(t *testing.T) {
	t.Run("generated", func(t *testing.T) {
		_, err := DecodeBytes(pack(t, testHeader(0x00, 32, 0, 1), subheaderFixture{Exponent: 32}))
		assert.ErrorIs(t, err, ErrCorruptFile)
	})

	t.Run("global explicit x", func(t *testing.T) {
		_, err := DecodeBytes(pack(t, testHeader(0x80, 32, 0, 1), subheaderFixture{Exponent: 32}))
		assert.ErrorIs(t, err, ErrCorruptFile)
	})

	t.Run("sequential per-subfile x", func(t *testing.T) {
		_, err := DecodeBytes(pack(t, testHeader(0x44, 0, 0, 1), subheaderFixture{Exponent: 32}))
		assert.ErrorIs(t, err, ErrCorruptFile)
	})
}

func TestDecodePerSubfileFloatX(t *testing.T) {
	h := testHeader(0x44, 0, 0, 1)
	sh := subheaderFixture{Exponent: -128, Points: 2}
	f, err := DecodeBytes(pack(t, h, sh, []float32{1.5, 2.5}, []float32{-0.25, 8}))
	require.NoError(t, err)

	require.Len(t, f.Subfiles, 1)
	assert.Equal(t, []float64{1.5, 2.5}, f.Subfiles[0].X)
	assert.Equal(t, []float64{-0.25, 8}, f.Subfiles[0].Y)
	assert.Equal(t, FloatExponent, f.Subfiles[0].Exponent)
}

func TestDecodeOld(t *testing.T) {
	t.Run("single subfile", func(t *testing.T) {
		buf := oldFixture(t, []int32{10, -20, 30})
		// A partial record at the end stops the scan.
		buf = append(buf, 1, 2, 3, 4, 5)

		f, err := DecodeBytes(buf)
		require.NoError(t, err)
		assert.Equal(t, VariantOld, f.Variant)
		assert.Equal(t, Generated{First: 0, Last: 2, Points: 3}, f.Layout)
		require.Len(t, f.Subfiles, 1)
		assert.Equal(t, []float64{10, -20, 30}, f.Subfiles[0].Y)
		assert.Equal(t, 1, f.Header.SubfileCount)
		assert.Equal(t, "old style file", f.Header.Comment)
		assert.Equal(t, Date{Year: 1994, Month: 5, Day: 17, Hour: 13, Minute: 45}, f.Header.Date)
	})

	t.Run("scans until exhausted", func(t *testing.T) {
		f, err := DecodeBytes(oldFixture(t, []int32{1, 2, 3}, []int32{4, 5, 6}))
		require.NoError(t, err)
		require.Len(t, f.Subfiles, 2)
		assert.Equal(t, []float64{4, 5, 6}, f.Subfiles[1].Y)
	})

	t.Run("text labels from xtype 15", func(t *testing.T) {
		buf := oldFixture(t, []int32{1, 2, 3})
		buf[16] = oldTextLabelsXType
		copy(buf[194:], "Time\x00Signal\x00")

		f, err := DecodeBytes(buf)
		require.NoError(t, err)
		assert.Equal(t, "Time", f.Labels.X)
		assert.Equal(t, "Signal", f.Labels.Y)
	})

	t.Run("no complete subfile", func(t *testing.T) {
		buf := oldFixture(t)
		_, err := DecodeBytes(buf)
		assert.ErrorIs(t, err, ErrCorruptFile)
	})
}

func TestDecodeShimadzu(t *testing.T) {
	build := func(y, x []float64, gap int) []byte {
		buf := make([]byte, shimadzuDataOffset)
		buf[1] = TagShimadzu
		if len(y) > 0 {
			buf = append(buf, pack(t, y)...)
		}
		buf = append(buf, make([]byte, gap)...)
		if len(x) > 0 {
			buf = append(buf, pack(t, x)...)
		}
		return buf
	}

	t.Run("arrays found", func(t *testing.T) {
		f, err := DecodeBytes(build([]float64{1, 2, 3}, []float64{10, 20, 30}, 40))
		require.NoError(t, err)
		assert.Equal(t, VariantShimadzu, f.Variant)
		assert.Equal(t, GlobalExplicit{X: []float64{10, 20, 30}}, f.Layout)
		require.Len(t, f.Subfiles, 1)
		assert.Equal(t, []float64{1, 2, 3}, f.Subfiles[0].Y)
	})

	t.Run("no separator", func(t *testing.T) {
		buf := make([]byte, shimadzuDataOffset+64)
		buf[1] = TagShimadzu
		for i := shimadzuDataOffset; i < len(buf); i++ {
			buf[i] = 0xff
		}
		_, err := DecodeBytes(buf)
		assert.ErrorIs(t, err, ErrHeuristicFailed)
	})

	t.Run("separator at start", func(t *testing.T) {
		_, err := DecodeBytes(build(nil, []float64{10}, 40))
		assert.ErrorIs(t, err, ErrHeuristicFailed)
	})

	t.Run("no x array", func(t *testing.T) {
		_, err := DecodeBytes(build([]float64{1, 2}, nil, 40))
		assert.ErrorIs(t, err, ErrHeuristicFailed)
	})
}

func TestDecodeErrors(t *testing.T) {
	t.Run("unknown tag", func(t *testing.T) {
		_, err := DecodeBytes(make([]byte, 600))
		assert.ErrorIs(t, err, ErrUnknownFormat)

		var ufe *UnknownFormatError
		require.ErrorAs(t, err, &ufe)
		assert.Equal(t, byte(0x00), ufe.Tag)
	})

	t.Run("big-endian new format", func(t *testing.T) {
		buf := make([]byte, 600)
		buf[1] = TagNewMSB
		_, err := DecodeBytes(buf)
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := DecodeBytes(nil)
		assert.ErrorIs(t, err, ErrCorruptFile)
	})

	t.Run("truncated header", func(t *testing.T) {
		buf := generatedFixture(t)[:300]
		_, err := DecodeBytes(buf)
		assert.ErrorIs(t, err, ErrCorruptFile)
	})

	t.Run("truncated subfile", func(t *testing.T) {
		buf := generatedFixture(t)
		_, err := DecodeBytes(buf[:len(buf)-2])
		assert.ErrorIs(t, err, ErrCorruptFile)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Decode(filepath.Join(t.TempDir(), "missing.spc"))
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestDecodeFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.spc")
	require.NoError(t, os.WriteFile(path, generatedFixture(t), 0o644))

	f, err := Decode(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, f.Subfiles[0].Y)
}

func TestLogBlock(t *testing.T) {
	t.Run("parsed", func(t *testing.T) {
		buf := withLog(t, generatedFixture(t), "A=1\r\nB=2\r\nfreeform\r\n")
		f, err := DecodeBytes(buf)
		require.NoError(t, err)
		require.NoError(t, f.LogErr)
		require.NotNil(t, f.Log)

		assert.Equal(t, map[string]string{"A": "1", "B": "2"}, f.Log.Dict())
		assert.Equal(t, []string{"freeform", ""}, f.Log.Other)
		assert.Equal(t, []string{"A=1", "B=2", "freeform", ""}, f.Log.Lines)
		assert.Equal(t, []string{"A", "B"}, f.Log.Keys())
		assert.Equal(t, uint32(4096), f.Log.MemSize)
	})

	t.Run("duplicates and extra separators", func(t *testing.T) {
		l := &LogBlock{}
		parseLogText(l, "k=1\nk=2\nurl=a=b")
		v, ok := l.Get("k")
		assert.True(t, ok)
		assert.Equal(t, "2", v)
		v, _ = l.Get("url")
		assert.Equal(t, "a=b", v)
		assert.Equal(t, []string{"k", "url"}, l.Keys())
		assert.Empty(t, l.Other)
	})

	t.Run("malformed is recovered", func(t *testing.T) {
		buf := withLog(t, generatedFixture(t), "A=1")
		// Declare far more text than the file holds.
		logOffset := len(generatedFixture(t))
		buf[logOffset] = 0xff
		buf[logOffset+1] = 0xff

		f, err := DecodeBytes(buf)
		require.NoError(t, err)
		assert.Nil(t, f.Log)
		assert.True(t, errors.Is(f.LogErr, ErrLogBlockMalformed))
		assert.Equal(t, []float64{1, 2, 3}, f.Subfiles[0].Y)
	})

	t.Run("offset past end", func(t *testing.T) {
		buf := generatedFixture(t)
		buf[248] = 0xff
		buf[249] = 0xff
		f, err := DecodeBytes(buf)
		require.NoError(t, err)
		assert.ErrorIs(t, f.LogErr, ErrLogBlockMalformed)
	})
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "Transmission", YTypeLabel(128))
	assert.Equal(t, "Emission", YTypeLabel(131))
	assert.Equal(t, unknownLabel, YTypeLabel(132))
	assert.Equal(t, unknownLabel, YTypeLabel(27))
	assert.Equal(t, "Complex", YTypeLabel(26))
	assert.Equal(t, "Millimeters (mm)", XTypeLabel(29))
	assert.Equal(t, unknownLabel, XTypeLabel(30))
	assert.Equal(t, unknownLabel, ExperimentType(14))

	t.Run("text overrides", func(t *testing.T) {
		labels := resolveLabels(1, 2, 3, true, []byte("Time\x00\x00Temp\xb0\x00"))
		assert.Equal(t, AxisLabels{X: "Time", Y: "Absorbance", Z: "Temp°"}, labels)
	})

	t.Run("overrides ignored without flag", func(t *testing.T) {
		labels := resolveLabels(1, 2, 3, false, []byte("Time\x00\x00Temp"))
		assert.Equal(t, AxisLabels{X: "Wavenumber (cm-1)", Y: "Absorbance", Z: "Nanometers (nm)"}, labels)
	})
}
