package hexdump

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func plain() Options {
	options := DefaultOptions()
	options.Color = false
	return options
}

func TestDumpFullLine(t *testing.T) {
	options := plain()
	options.BytesPerLine = 8
	options.OffsetWidth = 4
	options.StartOffset = 0x10

	got := Dump([]byte("ABCDEFGH"), options)
	assert.Equal(t, "0010  41 42 43 44 | 45 46 47 48 | ABCD EFGH\n", got)
}

func TestDumpShortLineIsPadded(t *testing.T) {
	options := plain()
	options.BytesPerLine = 8
	options.OffsetWidth = 4

	got := Dump([]byte("ABCDEFGHI\x00"), options)
	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	assert.Len(t, lines, 2)
	assert.Equal(t, "0000  41 42 43 44 | 45 46 47 48 | ABCD EFGH", lines[0])
	assert.Equal(t, "0008  49 00"+strings.Repeat(" ", 20)+" | I.", lines[1])
	assert.Equal(t, strings.Index(lines[0], " | A"), strings.Index(lines[1], " | I"))
}

func TestDumpMaxLines(t *testing.T) {
	options := plain()
	options.MaxLines = 1

	got := Dump(make([]byte, 40), options)
	assert.True(t, strings.HasSuffix(got, "... 24 more bytes\n"))
}

func TestDumpNoColorCodesWhenPlain(t *testing.T) {
	options := plain()
	options.Highlights = []Range{{Start: 0, End: 4}}
	assert.NotContains(t, Dump([]byte{0, 1, 2, 3, 4}, options), "\033[")

	options.Color = true
	assert.Contains(t, Dump([]byte{0, 1, 2, 3, 4}, options), "\033[")
}

func TestWindow(t *testing.T) {
	data := make([]byte, 100)

	start, end := Window(data, 40, 2, 8)
	assert.Equal(t, 32, start)
	assert.Equal(t, 50, end)

	start, end = Window(data, 2, 1, 16)
	assert.Equal(t, 0, start)
	assert.Equal(t, 19, end)

	start, end = Window(data, 98, 2, 16)
	assert.Equal(t, 80, start)
	assert.Equal(t, 100, end)
}

func TestDumpWindow(t *testing.T) {
	data := []byte("0123456789abcdefXYZ")

	got := DumpWindow(data, 16, 3, 0, 0x400000, false)
	assert.Equal(t, "00400010  58 59 5a"+strings.Repeat(" ", 41)+" | XYZ\n", got)

	got = DumpWindow(data, 16, 3, 4, 0x400000, false)
	assert.True(t, strings.HasPrefix(got, "00400000  30 31"))
	assert.Equal(t, 2, strings.Count(got, "\n"))
}
