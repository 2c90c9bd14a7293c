package spc

// Flags is the decoded file type flag byte.
type Flags struct {
	ShortY         bool `json:"short_y"`         // y samples are 16-bit integers
	ExperimentByte bool `json:"experiment_byte"` // experiment type byte is meaningful
	Multi          bool `json:"multi"`           // file holds more than one subfile
	RandomTimes    bool `json:"random_times"`    // arbitrary subfile z values
	OrderedUneven  bool `json:"ordered_uneven"`  // ordered but uneven subfile z values
	TextLabels     bool `json:"text_labels"`     // axis labels come from the category text block
	PerSubfileX    bool `json:"per_subfile_x"`   // every subfile carries its own x array
	ExplicitX      bool `json:"explicit_x"`      // one float x array precedes the subfiles
	Raw            byte `json:"raw"`
}

// FlagBits returns the bits of b, most significant first.
func FlagBits(b byte) [8]bool {
	var bits [8]bool
	for i := 0; i < 8; i++ {
		bits[i] = b&(0x80>>uint(i)) != 0
	}
	return bits
}

// ParseFlags names the bits of the flag byte. The names run from the least
// significant bit up, i.e. over FlagBits(b) read back to front. This is the
// assignment SPC writers use: TSPREC is 0x01 and TXVALS is 0x80.
func ParseFlags(b byte) Flags {
	bits := FlagBits(b)
	return Flags{
		ShortY:         bits[7],
		ExperimentByte: bits[6],
		Multi:          bits[5],
		RandomTimes:    bits[4],
		OrderedUneven:  bits[3],
		TextLabels:     bits[2],
		PerSubfileX:    bits[1],
		ExplicitX:      bits[0],
		Raw:            b,
	}
}
