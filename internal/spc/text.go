package spc

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// WriteText renders f as delimited rows.
//
// A single subfile gives one "x<delim>y" row per sample. Several subfiles
// that share x give one row per x value with a y column per subfile. When
// each subfile has its own x, every subfile is written as x/y rows followed
// by an empty line.
func WriteText(w io.Writer, f *File, delim, newline string) error {
	bw := bufio.NewWriter(w)
	var err error
	switch {
	case len(f.Subfiles) == 1:
		sub := f.Subfiles[0]
		x := sub.X
		if _, ok := f.Layout.(PerSubfile); !ok {
			x = f.X()
		}
		writePairs(bw, x, sub.Y, delim, newline)
	case isPerSubfile(f.Layout):
		for _, sub := range f.Subfiles {
			writePairs(bw, sub.X, sub.Y, delim, newline)
			bw.WriteString(newline)
		}
	default:
		err = writeColumns(bw, f.X(), f.Subfiles, delim, newline)
	}
	if err != nil {
		return err
	}
	return bw.Flush()
}

// Text returns the WriteText rendering of f.
func (f *File) Text(delim, newline string) (string, error) {
	var sb strings.Builder
	if err := WriteText(&sb, f, delim, newline); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func isPerSubfile(l XLayout) bool {
	_, ok := l.(PerSubfile)
	return ok
}

func writePairs(w *bufio.Writer, x, y []float64, delim, newline string) {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	for i := 0; i < n; i++ {
		w.WriteString(FormatFloat(x[i]))
		w.WriteString(delim)
		w.WriteString(FormatFloat(y[i]))
		w.WriteString(newline)
	}
}

func writeColumns(w *bufio.Writer, x []float64, subs []Subfile, delim, newline string) error {
	for _, sub := range subs {
		if len(sub.Y) < len(x) {
			return fmt.Errorf("%w: subfile %d has %d samples for %d x values", ErrCorruptFile, sub.Index, len(sub.Y), len(x))
		}
	}
	for i, xv := range x {
		w.WriteString(FormatFloat(xv))
		for _, sub := range subs {
			w.WriteString(delim)
			w.WriteString(FormatFloat(sub.Y[i]))
		}
		w.WriteString(newline)
	}
	return nil
}

// FormatFloat prints v as the shortest decimal that reads back to the same
// float64. Decimal exponents in [-4, 16) use fixed notation with at least one
// fractional digit; others use exponent notation such as 1e-05.
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	e := strconv.FormatFloat(v, 'e', -1, 64)
	exp, _ := strconv.Atoi(e[strings.IndexByte(e, 'e')+1:])
	if exp < -4 || exp >= 16 {
		return e
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}
