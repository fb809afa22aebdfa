package interop

import "unicode/utf16"

// StringFromUTF16 converts boundary text, given as UTF-16 code units without
// a terminator, into a Go string. Unpaired surrogates become U+FFFD.
func StringFromUTF16(units []uint16) string {
	if len(units) == 0 {
		return ""
	}
	return string(utf16.Decode(units))
}

// UTF16Units returns the number of UTF-16 code units needed to represent s.
// Code points above the BMP count as two units.
func UTF16Units(s string) int {
	return len(utf16.Encode([]rune(s)))
}
