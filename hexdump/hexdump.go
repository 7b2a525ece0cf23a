package hexdump

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Moonlight-Companies/gologger/coloransi"
)

// Range marks data[Start:End] for highlighting.
type Range struct {
	Start int
	End   int
}

func (r Range) contains(i int) bool {
	return i >= r.Start && i < r.End
}

// Options defines options for customizing the hexdump output
type Options struct {
	// BytesPerLine defines the number of bytes to display per line
	BytesPerLine int

	// ShowASCII determines whether to show the ASCII representation
	ShowASCII bool

	// StartOffset is the address printed for data[0]
	StartOffset uint64

	// OffsetWidth is the width of the offset column in hex digits
	OffsetWidth int

	// Color enables ANSI colors; without it the output is plain text
	Color bool

	// Highlights are byte ranges of data painted with the highlight colors
	Highlights []Range

	OffsetColor              coloransi.ColorCode
	HexColor                 coloransi.ColorCode
	ASCIIColor               coloransi.ColorCode
	NonPrintableColor        coloransi.ColorCode
	ZeroColor                coloransi.ColorCode
	HighlightColor           coloransi.ColorCode
	HighlightBackgroundColor coloransi.ColorCode

	// MaxLines is the maximum number of lines to show (0 for no limit)
	MaxLines int
}

// DefaultOptions returns the default hexdump options
func DefaultOptions() Options {
	return Options{
		BytesPerLine:             16,
		ShowASCII:                true,
		OffsetWidth:              8,
		Color:                    true,
		OffsetColor:              coloransi.Cyan,
		HexColor:                 coloransi.Green,
		ASCIIColor:               coloransi.White,
		NonPrintableColor:        coloransi.BrightBlack,
		ZeroColor:                coloransi.BrightBlack,
		HighlightColor:           coloransi.Black,
		HighlightBackgroundColor: coloransi.ColorOrange,
	}
}

// Dump creates a hex dump of the given data with specified options
func Dump(data []byte, options Options) string {
	var buffer bytes.Buffer
	DumpToWriter(&buffer, data, options)
	return buffer.String()
}

// DumpToWriter writes a hex dump of the given data to the specified writer
func DumpToWriter(writer io.Writer, data []byte, options Options) {
	if options.BytesPerLine <= 0 {
		options.BytesPerLine = 16
	}
	if options.OffsetWidth <= 0 {
		options.OffsetWidth = 8
	}

	lineCount := 0
	for offset := 0; offset < len(data); offset += options.BytesPerLine {
		if options.MaxLines > 0 && lineCount >= options.MaxLines {
			fmt.Fprintf(writer, "... %d more bytes\n", len(data)-offset)
			break
		}

		end := offset + options.BytesPerLine
		if end > len(data) {
			end = len(data)
		}

		formatLine(writer, data[offset:end], offset, options)
		lineCount++
	}
}

// formatLine formats a single line; base is the index of line[0] in the
// dumped data.
func formatLine(writer io.Writer, line []byte, base int, options Options) {
	paint := painter(options.Color)
	half := options.BytesPerLine / 2
	split := options.BytesPerLine >= 8 && len(line) > half

	offsetStr := fmt.Sprintf("%0"+strconv.Itoa(options.OffsetWidth)+"x", options.StartOffset+uint64(base))
	fmt.Fprint(writer, paint.fg(options.OffsetColor, offsetStr), "  ")

	hexParts := make([]string, len(line))
	for i, b := range line {
		hexParts[i] = paintByte(paint, fmt.Sprintf("%02x", b), b, base+i, options, options.HexColor)
	}

	if split {
		fmt.Fprint(writer, strings.Join(hexParts[:half], " "), " | ", strings.Join(hexParts[half:], " "))
	} else {
		fmt.Fprint(writer, strings.Join(hexParts, " "))
	}

	// pad short lines so the ASCII column stays aligned
	full := 3*options.BytesPerLine - 1
	if options.BytesPerLine >= 8 {
		full += 2
	}
	cur := 3*len(line) - 1
	if split {
		cur += 2
	}
	if full > cur {
		fmt.Fprint(writer, strings.Repeat(" ", full-cur))
	}

	if options.ShowASCII {
		fmt.Fprint(writer, " | ")
		if split {
			formatASCII(writer, paint, line[:half], base, options)
			fmt.Fprint(writer, " ")
			formatASCII(writer, paint, line[half:], base+half, options)
		} else {
			formatASCII(writer, paint, line, base, options)
		}
	}

	fmt.Fprintln(writer)
}

// formatASCII formats the ASCII part of a hex dump line
func formatASCII(writer io.Writer, paint painter, data []byte, base int, options Options) {
	for i, b := range data {
		c := "."
		color := options.NonPrintableColor
		if b >= 0x20 && b < 0x7F {
			c = string(rune(b))
			color = options.ASCIIColor
		}
		fmt.Fprint(writer, paintByte(paint, c, b, base+i, options, color))
	}
}

func paintByte(paint painter, s string, b byte, index int, options Options, color coloransi.ColorCode) string {
	for _, r := range options.Highlights {
		if r.contains(index) {
			return paint.fgbg(options.HighlightColor, options.HighlightBackgroundColor, s)
		}
	}
	if b == 0 {
		color = options.ZeroColor
	}
	return paint.fg(color, s)
}

// Window returns the bounds of data[at:at+length] widened by context bytes
// on both sides, aligned down to a 16 byte line and clamped to data.
func Window(data []byte, at, length, context int) (start, end int) {
	start = at - context
	if start < 0 {
		start = 0
	}
	start -= start % 16

	end = at + length + context
	if end > len(data) {
		end = len(data)
	}
	if end < start {
		end = start
	}
	return start, end
}

// DumpWindow dumps the bytes around data[at:at+length] with that span
// highlighted. base is the address of data[0].
func DumpWindow(data []byte, at, length, context int, base uint64, color bool) string {
	start, end := Window(data, at, length, context)

	options := DefaultOptions()
	options.Color = color
	options.StartOffset = base + uint64(start)
	options.Highlights = []Range{{Start: at - start, End: at - start + length}}

	return Dump(data[start:end], options)
}
