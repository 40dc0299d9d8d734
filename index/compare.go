package index

import (
	"cmp"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CompareValues orders a against b. Numbers of any width compare
// numerically, strings lexically, times chronologically and false sorts
// before true. ok is false when the values cannot be compared.
func CompareValues(a, b any) (order int, ok bool) {
	if a == nil || b == nil {
		return 0, false
	}

	switch av := a.(type) {
	case string:
		bv, isString := b.(string)
		if !isString {
			return 0, false
		}
		return strings.Compare(av, bv), true

	case time.Time:
		bv, isTime := b.(time.Time)
		if !isTime {
			return 0, false
		}
		return av.Compare(bv), true

	case time.Duration:
		bv, isDuration := b.(time.Duration)
		if !isDuration {
			return 0, false
		}
		return cmp.Compare(av, bv), true

	case bool:
		bv, isBool := b.(bool)
		if !isBool {
			return 0, false
		}
		return cmp.Compare(boolRank(av), boolRank(bv)), true
	}

	return compareNumbers(a, b)
}

func compareNumbers(a, b any) (int, bool) {
	ad, aIsDecimal := a.(decimal.Decimal)
	bd, bIsDecimal := b.(decimal.Decimal)

	if !aIsDecimal && !bIsDecimal {
		af, ok := toFloat(a)
		if !ok {
			return 0, false
		}
		bf, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		if math.IsNaN(af) || math.IsNaN(bf) {
			return 0, false
		}
		return cmp.Compare(af, bf), true
	}

	if !aIsDecimal {
		var ok bool
		if ad, ok = toDecimal(a); !ok {
			return compareAsFloat(a, bd)
		}
	}
	if !bIsDecimal {
		var ok bool
		if bd, ok = toDecimal(b); !ok {
			order, comparable := compareAsFloat(b, ad)
			return -order, comparable
		}
	}

	return ad.Cmp(bd), true
}

// compareAsFloat handles infinities, which have no decimal form.
func compareAsFloat(a any, d decimal.Decimal) (int, bool) {
	af, ok := toFloat(a)
	if !ok || math.IsNaN(af) {
		return 0, false
	}
	df, _ := d.Float64()
	return cmp.Compare(af, df), true
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsInf(n, 0) || math.IsNaN(n) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(n), true
	case float32:
		return toDecimal(float64(n))
	}

	if i, ok := toInt(v); ok {
		return decimal.New(i, 0), true
	}
	return decimal.Zero, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint:
		return float64(n), true
	}

	if i, ok := toInt(v); ok {
		return float64(i), true
	}
	return 0, false
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	default:
		return 0, false
	}
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}
