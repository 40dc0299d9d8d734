package bits

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// BCDDataSize is the storage width of a packed decimal field.
const BCDDataSize = 17

var (
	ErrBCDShort = errors.New("bcd: field shorter than declared size")
	ErrBCDParse = errors.New("bcd: invalid digits")
)

// DecodeBCD decodes a packed binary-coded decimal of dataLen bytes.
//
// The leading byte carries the sign in its high bit (set = positive) and the
// number of fractional digits in its low 6 bits. Digits follow as nibbles
// starting at nibble 2; negative values store every nibble complemented.
func DecodeBCD(field []byte, dataLen int) (decimal.Decimal, error) {
	if len(field) < dataLen || dataLen < 1 {
		return decimal.Zero, ErrBCDShort
	}

	lead := field[0]

	var sign byte
	var sb strings.Builder
	if lead&0x80 == 0 {
		sign = 0x0F
		sb.WriteByte('-')
	}
	decLen := int(lead & 0x3F)

	nibble := func(i int) byte {
		b := field[i/2]
		if i%2 == 0 {
			return b >> 4
		}
		return b & 0x0F
	}

	nibblesLen := dataLen * 2
	intEnd := max(nibblesLen-decLen, 2)

	leadingZero := true
	for i := 2; i < intEnd; i++ {
		d := nibble(i) ^ sign
		if leadingZero && d > 0 {
			leadingZero = false
		}
		if !leadingZero {
			sb.WriteByte('0' + d)
		}
	}
	if leadingZero {
		sb.WriteByte('0')
	}
	sb.WriteByte('.')

	for i := intEnd; i < nibblesLen; i++ {
		sb.WriteByte('0' + (nibble(i) ^ sign))
	}

	text := sb.String()
	for _, c := range text {
		if c != '-' && c != '.' && (c < '0' || c > '9') {
			return decimal.Zero, fmt.Errorf("%w: %q", ErrBCDParse, text)
		}
	}

	value, err := decimal.NewFromString(strings.TrimSuffix(text, "."))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q: %s", ErrBCDParse, text, err.Error())
	}
	return value, nil
}

// EncodeBCD packs v into a dataLen byte field with decLen fractional digits.
func EncodeBCD(v decimal.Decimal, dataLen, decLen int) []byte {
	out := make([]byte, dataLen)

	var sign byte
	lead := byte(decLen & 0x3F)
	if v.Sign() >= 0 {
		lead |= 0x80
	} else {
		sign = 0x0F
	}
	out[0] = lead

	digits := v.Abs().Mul(decimal.New(1, int32(decLen))).Floor().String()
	nibblesLen := dataLen * 2
	for i := nibblesLen - 1; i >= 2; i-- {
		var d byte
		if pos := len(digits) - (nibblesLen - i); pos >= 0 {
			d = digits[pos] - '0'
		}
		d ^= sign
		if i%2 == 0 {
			out[i/2] |= d << 4
		} else {
			out[i/2] |= d
		}
	}
	return out
}
