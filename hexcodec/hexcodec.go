// Package hexcodec converts between raw bytes and the hex text used by patch
// scripts and diagnostics.
package hexcodec

import (
	"errors"
	"fmt"
	"strings"
)

// Separator joins the two-digit groups of the canonical form.
const Separator = '-'

const upperDigits = "0123456789ABCDEF"

var (
	// ErrMalformedPattern is returned when flexible hex text leaves a hex digit without its partner.
	ErrMalformedPattern = errors.New("malformed patch pattern")

	// ErrInternalConsistency is returned when text that should be canonical is not.
	ErrInternalConsistency = errors.New("internal error: hex text is not canonical")
)

// Encode renders b as two uppercase hex digits per byte joined by Separator,
// e.g. "AA-BB-CC". Every byte but the last takes three characters.
func Encode(b []byte) string {
	if len(b) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.Grow(len(b)*3 - 1)
	for i, c := range b {
		if i > 0 {
			sb.WriteByte(Separator)
		}
		sb.WriteByte(upperDigits[c>>4])
		sb.WriteByte(upperDigits[c&0x0F])
	}
	return sb.String()
}

// DecodeFlexible reads hex byte pairs out of text, skipping anything that is
// not a hex digit. A hex digit must be directly followed by a second one.
func DecodeFlexible(text string) ([]byte, error) {
	result := make([]byte, 0, len(text)/2)

	for i := 0; i < len(text); {
		if !IsHexDigit(text[i]) {
			i++
			continue
		}

		if i+1 >= len(text) {
			return nil, fmt.Errorf("%w: unpaired hex digit %q at end of input", ErrMalformedPattern, text[i])
		}
		if !IsHexDigit(text[i+1]) {
			return nil, fmt.Errorf("%w: unpaired hex digit %q at column %d", ErrMalformedPattern, text[i], i+1)
		}

		result = append(result, nibble(text[i])<<4|nibble(text[i+1]))
		i += 2
	}

	return result, nil
}

// DecodeStrict is the inverse of Encode. Anything Encode could not have
// produced is reported as ErrInternalConsistency.
func DecodeStrict(text string) ([]byte, error) {
	if len(text) == 0 {
		return []byte{}, nil
	}
	if len(text)%3 != 2 {
		return nil, fmt.Errorf("%w: length %d", ErrInternalConsistency, len(text))
	}

	out := make([]byte, len(text)/3+1)
	for i := range out {
		pos := i * 3
		hi, lo := text[pos], text[pos+1]
		if !IsHexDigit(hi) || !IsHexDigit(lo) {
			return nil, fmt.Errorf("%w: bad digits at %d", ErrInternalConsistency, pos)
		}
		if pos+2 < len(text) && text[pos+2] != Separator {
			return nil, fmt.Errorf("%w: bad separator at %d", ErrInternalConsistency, pos+2)
		}
		out[i] = nibble(hi)<<4 | nibble(lo)
	}

	return out, nil
}

// IsHexDigit reports whether c is an ASCII hex digit of either case.
func IsHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// nibble assumes IsHexDigit(c).
func nibble(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
