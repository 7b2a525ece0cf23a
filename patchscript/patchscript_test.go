package patchscript

import (
	"errors"
	"math"
	"strings"
	"testing"

	"hexpatch/hexcodec"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleScript = `# unlock the trial
SB:401000=55 8B EC 83 EC 10

F: 74 05 33 C0
R: EB 05 33 C0
something else
F:de-ad
R:be ef
`

func TestParse(t *testing.T) {
	directives, err := Parse(strings.NewReader(sampleScript))
	require.NoError(t, err)
	require.Len(t, directives, 5)

	assert.Equal(t, Directive{Kind: SetBase, Line: 2, Address: 0x401000, Pattern: []byte{0x55, 0x8B, 0xEC, 0x83, 0xEC, 0x10}}, directives[0])
	assert.Equal(t, Directive{Kind: SetFind, Line: 4, Pattern: []byte{0x74, 0x05, 0x33, 0xC0}}, directives[1])
	assert.Equal(t, Directive{Kind: Replace, Line: 5, Pattern: []byte{0xEB, 0x05, 0x33, 0xC0}}, directives[2])
	assert.Equal(t, Directive{Kind: SetFind, Line: 7, Pattern: []byte{0xDE, 0xAD}}, directives[3])
	assert.Equal(t, Directive{Kind: Replace, Line: 8, Pattern: []byte{0xBE, 0xEF}}, directives[4])
}

func TestParseCRLF(t *testing.T) {
	directives, err := Parse(strings.NewReader("F:AA\r\nR:BB\r\nSB:10=AA\r\n"))
	require.NoError(t, err)
	require.Len(t, directives, 3)
	assert.Equal(t, []byte{0xAA}, directives[0].Pattern)
	assert.Equal(t, []byte{0xBB}, directives[1].Pattern)
	assert.Equal(t, int64(0x10), directives[2].Address)
	assert.Equal(t, 3, directives[2].Line)
}

func TestParseIgnoresUnknownLines(t *testing.T) {
	lines := []string{"", "   ", "; comment", "f:AA", "r:BB", "sb:1=AA", " F:AA", "X:ZZ", "FR:11"}
	directives, err := ParseLines(lines)
	require.NoError(t, err)
	assert.Empty(t, directives)
}

func TestParseEmptyPayloads(t *testing.T) {
	directives, err := ParseLines([]string{"F:", "R:"})
	require.NoError(t, err)
	require.Len(t, directives, 2)
	assert.Empty(t, directives[0].Pattern)
	assert.Empty(t, directives[1].Pattern)
}

func TestParseMalformedHex(t *testing.T) {
	cases := []struct {
		lines []string
		line  int
	}{
		{[]string{"F:AA", "R:BBB"}, 2},
		{[]string{"", "", "F:A"}, 3},
		{[]string{"SB:100=AA B"}, 1},
		{[]string{"# x", "R:1 2"}, 2},
	}

	for _, c := range cases {
		_, err := ParseLines(c.lines)
		require.Error(t, err)

		var lineErr *LineError
		require.True(t, errors.As(err, &lineErr))
		assert.Equal(t, c.line, lineErr.Line)
		assert.ErrorIs(t, err, ErrMalformedLine)
		assert.ErrorIs(t, err, hexcodec.ErrMalformedPattern)
		assert.Contains(t, err.Error(), "line ")
	}
}

func TestParseMalformedBase(t *testing.T) {
	for _, line := range []string{"SB:100", "SB:1=2=3", "SB:=AA", "SB:XYZ=AA", "SB:"} {
		_, err := ParseLines([]string{"F:AA", line})
		require.Error(t, err, line)

		var lineErr *LineError
		require.True(t, errors.As(err, &lineErr), line)
		assert.Equal(t, 2, lineErr.Line, line)
		assert.ErrorIs(t, err, ErrMalformedLine, line)
	}
}

func TestParseAddress(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"1000", 0x1000},
		{" 401000 ", 0x401000},
		{"0x7FF0", 0x7FF0},
		{"abcdef", 0xABCDEF},
		{"-10", -0x10},
		{"-0x10", -0x10},
		{"FFFFFFFFFFFFFFFF", -1},
		{"7FFFFFFFFFFFFFFF", math.MaxInt64},
		{"8000000000000000", math.MinInt64},
		{"-8000000000000000", math.MinInt64},
		{"0", 0},
	}

	for _, c := range cases {
		got, err := ParseAddress(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}

	for _, in := range []string{"", "-", "0x", "G1", "1 2", "10000000000000000", "-8000000000000001"} {
		_, err := ParseAddress(in)
		assert.Error(t, err, in)
	}
}

func TestDirectiveString(t *testing.T) {
	assert.Equal(t, "3:F:AA-BB", Directive{Kind: SetFind, Line: 3, Pattern: []byte{0xAA, 0xBB}}.String())
	assert.Equal(t, "4:SB:1000=CC", Directive{Kind: SetBase, Line: 4, Address: 0x1000, Pattern: []byte{0xCC}}.String())
}
