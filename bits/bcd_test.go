package bits

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func mustDecimal(text string) decimal.Decimal {
	v, err := decimal.NewFromString(text)
	if err != nil {
		panic(err)
	}
	return v
}

func bcdField(lead byte, tail ...byte) []byte {
	field := make([]byte, BCDDataSize)
	field[0] = lead
	copy(field[BCDDataSize-len(tail):], tail)
	return field
}

func TestDecodeBCDPositive(t *testing.T) {

	field := bcdField(0x82, 0x12, 0x34)

	result, err := DecodeBCD(field, BCDDataSize)

	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if !result.Equal(mustDecimal("12.34")) {
		t.Errorf("Expected %s but got %s", "12.34", result.String())
	}
}

func TestDecodeBCDNegative(t *testing.T) {

	field := make([]byte, BCDDataSize)
	field[0] = 0x02
	for i := 1; i < BCDDataSize; i++ {
		field[i] = 0xFF
	}
	field[15] = 0xED
	field[16] = 0xCB

	result, err := DecodeBCD(field, BCDDataSize)

	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if !result.Equal(mustDecimal("-12.34")) {
		t.Errorf("Expected %s but got %s", "-12.34", result.String())
	}
}

func TestDecodeBCDZeroIntegerPart(t *testing.T) {

	field := bcdField(0x82, 0x05)

	result, err := DecodeBCD(field, BCDDataSize)

	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if !result.Equal(mustDecimal("0.05")) {
		t.Errorf("Expected %s but got %s", "0.05", result.String())
	}
}

func TestDecodeBCDNoFraction(t *testing.T) {

	field := bcdField(0x80, 0x09, 0x99)

	result, err := DecodeBCD(field, BCDDataSize)

	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if result.IntPart() != 999 {
		t.Errorf("Expected %d but got %s", 999, result.String())
	}
}

func TestDecodeBCDInvalidDigit(t *testing.T) {

	field := bcdField(0x82, 0x1A, 0x34)

	_, err := DecodeBCD(field, BCDDataSize)

	if !errors.Is(err, ErrBCDParse) {
		t.Errorf("expected ErrBCDParse, got %v", err)
	}
}

func TestDecodeBCDShortField(t *testing.T) {

	_, err := DecodeBCD([]byte{0x82, 0x12}, BCDDataSize)

	if !errors.Is(err, ErrBCDShort) {
		t.Errorf("expected ErrBCDShort, got %v", err)
	}
}

func TestEncodeBCDRoundTrip(t *testing.T) {

	for _, text := range []string{"0", "12.34", "-12.34", "98765.43", "-0.01"} {
		v := mustDecimal(text)

		got, err := DecodeBCD(EncodeBCD(v, BCDDataSize, 2), BCDDataSize)
		if err != nil {
			t.Errorf("%s: unexpected error %v", text, err)
			continue
		}
		if !got.Equal(v) {
			t.Errorf("Expected %s but got %s", text, got.String())
		}
	}
}
