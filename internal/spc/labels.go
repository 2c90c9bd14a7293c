package spc

import (
	"bytes"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

const unknownLabel = "Unknown"

// Units of the x, z and w axes, indexed by type code.
var xTypeLabels = []string{
	"Arbitrary",
	"Wavenumber (cm-1)",
	"Micrometers (um)",
	"Nanometers (nm)",
	"Seconds ",
	"Minutes",
	"Hertz (Hz)",
	"Kilohertz (KHz)",
	"Megahertz (MHz) ",
	"Mass (M/z)",
	"Parts per million (PPM)",
	"Days",
	"Years",
	"Raman Shift (cm-1)",
	"eV",
	"XYZ text labels in fcatxt (old 0x4D version only)",
	"Diode Number",
	"Channel",
	"Degrees",
	"Temperature (F)",
	"Temperature (C)",
	"Temperature (K)",
	"Data Points",
	"Milliseconds (mSec)",
	"Microseconds (uSec) ",
	"Nanoseconds (nSec)",
	"Gigahertz (GHz)",
	"Centimeters (cm)",
	"Meters (m)",
	"Millimeters (mm)",
	"Hours",
}

// Only codes below this bound are looked up in xTypeLabels.
const xTypeLimit = 30

// oldTextLabelsXType marks old-format files whose labels live in the
// category text block.
const oldTextLabelsXType = 15

var yTypeLabels = []string{
	"Arbitrary Intensity",
	"Interferogram",
	"Absorbance",
	"Kubelka-Munk",
	"Counts",
	"Volts",
	"Degrees",
	"Milliamps",
	"Millimeters",
	"Millivolts",
	"Log(1/R)",
	"Percent",
	"Intensity",
	"Relative Intensity",
	"Energy",
	"",
	"Decibel",
	"",
	"",
	"Temperature (F)",
	"Temperature (C)",
	"Temperature (K)",
	"Index of Refraction [N]",
	"Extinction Coeff. [K]",
	"Real",
	"Imaginary",
	"Complex",
}

// y type codes 128 and up.
var yTypeHighLabels = []string{
	"Transmission",
	"Reflectance",
	"Arbitrary or Single Beam with Valley Peaks",
	"Emission",
}

var experimentTypes = []string{
	"General SPC",
	"Gas Chromatogram",
	"General Chromatogram",
	"HPLC Chromatogram",
	"FT-IR, FT-NIR, FT-Raman Spectrum or Igram",
	"NIR Spectrum",
	"UV-VIS Spectrum",
	"X-ray Diffraction Spectrum",
	"Mass Spectrum ",
	"NMR Spectrum or FID",
	"Raman Spectrum",
	"Fluorescence Spectrum",
	"Atomic Spectrum",
	"Chromatography Diode Array Spectra",
}

// XTypeLabel returns the unit string for an x or z type code.
func XTypeLabel(code byte) string {
	if int(code) < xTypeLimit {
		return xTypeLabels[code]
	}
	return unknownLabel
}

// YTypeLabel returns the unit string for a y type code.
func YTypeLabel(code byte) string {
	switch {
	case int(code) < len(yTypeLabels):
		return yTypeLabels[code]
	case code >= 128 && int(code)-128 < len(yTypeHighLabels):
		return yTypeHighLabels[code-128]
	default:
		return unknownLabel
	}
}

// ExperimentType returns the name of an experiment type code.
func ExperimentType(code byte) string {
	if int(code) < len(experimentTypes) {
		return experimentTypes[code]
	}
	return unknownLabel
}

// resolveLabels looks up the axis units and, when textLabels is set, lets
// the non-empty NUL separated entries of catxt override them.
func resolveLabels(xtype, ytype, ztype byte, textLabels bool, catxt []byte) AxisLabels {
	labels := AxisLabels{
		X: XTypeLabel(xtype),
		Y: YTypeLabel(ytype),
		Z: XTypeLabel(ztype),
	}
	if !textLabels {
		return labels
	}

	parts := bytes.SplitN(catxt, []byte{0}, 4)
	override := func(dst *string, i int) {
		if i < len(parts) && len(parts[i]) > 0 {
			*dst = decodeText(parts[i])
		}
	}
	override(&labels.X, 0)
	override(&labels.Y, 1)
	override(&labels.Z, 2)
	return labels
}

// decodeText converts Windows-1252 bytes to a string.
func decodeText(b []byte) string {
	out, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

// cString decodes a fixed-width field up to its first NUL.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return decodeText(b)
}

// comment decodes a fixed-width comment field, collapsing whitespace runs.
func comment(b []byte) string {
	return strings.Join(strings.Fields(cString(b)), " ")
}
