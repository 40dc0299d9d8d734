// Package codepage decodes the single-byte text stored in Paradox tables.
package codepage

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Default is used when neither the caller nor the table picks a code page.
var Default encoding.Encoding = charmap.Windows1252

var byID = map[uint16]*charmap.Charmap{
	437:  charmap.CodePage437,
	850:  charmap.CodePage850,
	852:  charmap.CodePage852,
	855:  charmap.CodePage855,
	858:  charmap.CodePage858,
	860:  charmap.CodePage860,
	862:  charmap.CodePage862,
	863:  charmap.CodePage863,
	865:  charmap.CodePage865,
	866:  charmap.CodePage866,
	874:  charmap.Windows874,
	1250: charmap.Windows1250,
	1251: charmap.Windows1251,
	1252: charmap.Windows1252,
	1253: charmap.Windows1253,
	1254: charmap.Windows1254,
	1255: charmap.Windows1255,
	1256: charmap.Windows1256,
	1257: charmap.Windows1257,
	1258: charmap.Windows1258,
}

// Lookup returns the charmap for a DOS/ANSI code page id.
func Lookup(id uint16) (encoding.Encoding, bool) {
	cm, ok := byID[id]
	if !ok {
		return nil, false
	}
	return cm, true
}

// Decode converts b to UTF-8. A nil enc means Default.
func Decode(enc encoding.Encoding, b []byte) string {
	if enc == nil {
		enc = Default
	}
	if ascii(b) {
		return string(b)
	}
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		// single-byte charmaps substitute unknown bytes, so this only happens
		// for caller supplied multi-byte encodings
		return string(b)
	}
	return string(out)
}

func ascii(b []byte) bool {
	for _, c := range b {
		if c >= 0x80 {
			return false
		}
	}
	return true
}
