package hexdump

import "github.com/Moonlight-Companies/gologger/coloransi"

// painter applies colors, or nothing at all when disabled.
type painter bool

func (p painter) fg(c coloransi.ColorCode, s string) string {
	if !p {
		return s
	}
	return coloransi.Foreground(c, s)
}

func (p painter) fgbg(fg, bg coloransi.ColorCode, s string) string {
	if !p {
		return s
	}
	return coloransi.Color(fg, bg, s)
}
