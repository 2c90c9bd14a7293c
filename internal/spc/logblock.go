package spc

import (
	"fmt"
	"strings"

	"github.com/spectriclabs/spc-data-service/internal/spc/cursor"
)

const logHeaderSize = 64

// LogBlock is the free-form instrument text stored after the data.
type LogBlock struct {
	Size       uint32 `json:"size"`
	MemSize    uint32 `json:"mem_size"`
	TextOffset uint32 `json:"text_offset"`
	Bins       uint32 `json:"bins"`
	Disks      uint32 `json:"disks"`

	// Lines holds every line of the text after carriage returns are removed.
	Lines []string `json:"lines"`
	// Other holds the lines without '=', in order, including empty ones.
	Other []string `json:"other"`

	keys   []string
	values map[string]string
}

// Get returns the value stored for key.
func (l *LogBlock) Get(key string) (string, bool) {
	v, ok := l.values[key]
	return v, ok
}

// Keys returns the keys in order of first appearance.
func (l *LogBlock) Keys() []string {
	return append([]string(nil), l.keys...)
}

// Dict returns a copy of the key/value pairs.
func (l *LogBlock) Dict() map[string]string {
	out := make(map[string]string, len(l.values))
	for k, v := range l.values {
		out[k] = v
	}
	return out
}

// decodeLogBlock reads the log sub-header at offset and parses its text.
// Any failure is reported as ErrLogBlockMalformed.
func decodeLogBlock(buf []byte, offset uint32) (*LogBlock, error) {
	c := cursor.New(buf).At(int(offset))
	if !c.Has(logHeaderSize) {
		return nil, fmt.Errorf("%w: header at offset %d past end of file (%d bytes)", ErrLogBlockMalformed, offset, len(buf))
	}

	l := &LogBlock{}
	l.Size, _ = c.Uint32()
	l.MemSize, _ = c.Uint32()
	l.TextOffset, _ = c.Uint32()
	l.Bins, _ = c.Uint32()
	l.Disks, _ = c.Uint32()

	start := int64(offset) + int64(l.TextOffset)
	end := start + int64(l.Size)
	if end > int64(len(buf)) {
		return nil, fmt.Errorf("%w: text [%d,%d) past end of file (%d bytes)", ErrLogBlockMalformed, start, end, len(buf))
	}

	parseLogText(l, decodeText(buf[start:end]))
	return l, nil
}

func parseLogText(l *LogBlock, text string) {
	l.Lines = strings.Split(strings.ReplaceAll(text, "\r", ""), "\n")
	l.Other = []string{}
	l.values = make(map[string]string)
	for _, line := range l.Lines {
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			l.Other = append(l.Other, line)
			continue
		}
		if _, seen := l.values[key]; !seen {
			l.keys = append(l.keys, key)
		}
		l.values[key] = value
	}
}
