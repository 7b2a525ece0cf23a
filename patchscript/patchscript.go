// Package patchscript parses the line-oriented patch script format:
//
//	F:<hex>                  set the pattern to find
//	R:<hex>                  replace every occurrence of the find pattern
//	SB:<address>=<hex>       the unique occurrence of <hex> sits at <address>
//
// Hex payloads may contain any non-hex separators. Every other line is
// ignored, which leaves room for comments and blank lines.
package patchscript

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"hexpatch/hexcodec"
)

// Kind identifies a directive.
type Kind int

const (
	SetFind Kind = iota
	Replace
	SetBase
)

func (k Kind) String() string {
	switch k {
	case SetFind:
		return "F"
	case Replace:
		return "R"
	case SetBase:
		return "SB"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

const (
	prefixFind    = "F:"
	prefixReplace = "R:"
	prefixBase    = "SB:"
)

// ErrMalformedLine is wrapped by every error Parse returns for a bad line.
var ErrMalformedLine = errors.New("malformed patch line")

// Directive is one parsed instruction.
type Directive struct {
	Kind    Kind
	Line    int    // 1-based line in the script
	Pattern []byte // find, replacement or anchor key bytes
	Address int64  // SetBase only
}

func (d Directive) String() string {
	if d.Kind == SetBase {
		return fmt.Sprintf("%d:%s:%X=%s", d.Line, d.Kind, d.Address, hexcodec.Encode(d.Pattern))
	}
	return fmt.Sprintf("%d:%s:%s", d.Line, d.Kind, hexcodec.Encode(d.Pattern))
}

// LineError reports the script line a parse failure happened on.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// Parse reads a whole patch script.
func Parse(r io.Reader) ([]Directive, error) {
	var lines []string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read patch script: %w", err)
	}

	return ParseLines(lines)
}

// ParseLines parses already split script lines. lines[0] is line 1.
func ParseLines(lines []string) ([]Directive, error) {
	var directives []Directive

	for i, line := range lines {
		d, ok, err := ParseLine(i+1, line)
		if err != nil {
			return nil, err
		}
		if ok {
			directives = append(directives, d)
		}
	}

	return directives, nil
}

// ParseLine classifies a single line. ok is false for lines that carry no
// directive.
func ParseLine(lineNum int, line string) (d Directive, ok bool, err error) {
	line = strings.TrimSuffix(line, "\r")

	switch {
	case strings.HasPrefix(line, prefixFind):
		d, err = parsePattern(lineNum, SetFind, line[len(prefixFind):])
	case strings.HasPrefix(line, prefixReplace):
		d, err = parsePattern(lineNum, Replace, line[len(prefixReplace):])
	case strings.HasPrefix(line, prefixBase):
		d, err = parseBase(lineNum, line[len(prefixBase):])
	default:
		return Directive{}, false, nil
	}

	if err != nil {
		return Directive{}, false, err
	}
	return d, true, nil
}

func parsePattern(lineNum int, kind Kind, rest string) (Directive, error) {
	pattern, err := hexcodec.DecodeFlexible(rest)
	if err != nil {
		return Directive{}, lineError(lineNum, err)
	}
	return Directive{Kind: kind, Line: lineNum, Pattern: pattern}, nil
}

func parseBase(lineNum int, rest string) (Directive, error) {
	tokens := strings.Split(rest, "=")
	if len(tokens) != 2 {
		return Directive{}, lineError(lineNum, fmt.Errorf("expected <address>=<key>, got %d fields", len(tokens)))
	}

	address, err := ParseAddress(tokens[0])
	if err != nil {
		return Directive{}, lineError(lineNum, err)
	}

	key, err := hexcodec.DecodeFlexible(tokens[1])
	if err != nil {
		return Directive{}, lineError(lineNum, err)
	}

	return Directive{Kind: SetBase, Line: lineNum, Pattern: key, Address: address}, nil
}

// ParseAddress reads a base-16 signed 64-bit address. A leading '-' and a
// "0x" prefix are accepted; a full 16-digit value is taken as two's
// complement, so "FFFFFFFFFFFFFFFF" is -1.
func ParseAddress(s string) (int64, error) {
	s = strings.TrimSpace(s)

	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
	}
	if s == "" {
		return 0, errors.New("empty address")
	}

	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}

	if negative {
		if v > 1<<63 {
			return 0, fmt.Errorf("address -%s out of range", s)
		}
		return -int64(v), nil
	}
	return int64(v), nil
}

func lineError(lineNum int, err error) error {
	return &LineError{Line: lineNum, Err: fmt.Errorf("%w: %w", ErrMalformedLine, err)}
}
