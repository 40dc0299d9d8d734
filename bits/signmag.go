package bits

import (
	"encoding/binary"
	"math"

	"golang.org/x/exp/constraints"
)

// Paradox stores numbers big endian with the sign bit inverted, so that an
// unsigned byte-wise comparison orders values correctly. The functions here
// never touch their input; they return transformed copies.

// IntegerTransform flips the top bit of the first byte and reverses the
// byte order, yielding a little endian two's-complement value.
func IntegerTransform(field []byte) []byte {
	out := make([]byte, len(field))
	for i, b := range field {
		out[len(field)-1-i] = b
	}
	if len(field) > 0 {
		out[len(field)-1] ^= 0x80
	}
	return out
}

// FloatTransform undoes the floating point sign-magnitude encoding of an
// 8 byte field: a set high bit marks a positive value and is cleared, a
// clear high bit marks a negative value stored complemented. The result is
// little endian IEEE-754.
func FloatTransform(field []byte) []byte {
	tmp := make([]byte, len(field))
	copy(tmp, field)

	switch {
	case len(tmp) == 0:
	case tmp[0]&0x80 != 0:
		tmp[0] &= 0x7F
	case AllZero(tmp):
	default:
		for i := range tmp {
			tmp[i] = ^tmp[i]
		}
	}

	out := make([]byte, len(tmp))
	for i, b := range tmp {
		out[len(tmp)-1-i] = b
	}
	return out
}

// DecodeInt decodes a sign-magnitude integer field of 1 to 8 bytes.
func DecodeInt[T constraints.Signed](field []byte) T {
	le := IntegerTransform(field)

	var v uint64
	for i := len(le) - 1; i >= 0; i-- {
		v = v<<8 | uint64(le[i])
	}

	shift := 64 - 8*uint(len(le))
	return T(int64(v<<shift) >> shift)
}

// EncodeInt is the inverse of DecodeInt for a field of width bytes.
func EncodeInt[T constraints.Signed](v T, width int) []byte {
	out := make([]byte, width)
	u := uint64(int64(v))
	for i := width - 1; i >= 0; i-- {
		out[i] = byte(u)
		u >>= 8
	}
	out[0] ^= 0x80
	return out
}

// DecodeFloat decodes an 8 byte sign-magnitude floating point field.
func DecodeFloat(field []byte) (float64, bool) {
	if len(field) < 8 {
		return 0, false
	}
	le := FloatTransform(field[:8])
	return math.Float64frombits(binary.LittleEndian.Uint64(le)), true
}

// EncodeFloat is the inverse of DecodeFloat.
func EncodeFloat(f float64) []byte {
	out := make([]byte, 8)
	binary.BigEndian.PutUint64(out, math.Float64bits(f))

	if out[0]&0x80 == 0 {
		out[0] |= 0x80
	} else {
		for i := range out {
			out[i] = ^out[i]
		}
	}
	return out
}

// AllZero reports whether every byte of b is zero.
func AllZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
