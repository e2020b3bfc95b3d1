package utils

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// ToInt64 coerces a loosely typed JSON value into an int64.
// Ledger payloads encode u64 fields as decimal strings, so strings are the common case.
func ToInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, nil
		}
		// Scientific notation, e.g. "1e3"
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", n)
		}
		return floatToInt64(f)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", n.String())
		}
		return floatToInt64(f)
	case float64:
		return floatToInt64(n)
	case float32:
		return floatToInt64(float64(n))
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("value %d overflows int64", n)
		}
		return int64(n), nil
	case nil:
		return 0, fmt.Errorf("missing value")
	default:
		return 0, fmt.Errorf("unsupported numeric type %T", v)
	}
}

func floatToInt64(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("value %v out of range", f)
	}
	return int64(f), nil
}

// ToBigInt parses a decimal string (or number) into a big.Int.
// Balances routinely exceed 2^53 so float inputs are only accepted when integral.
func ToBigInt(v interface{}) (*big.Int, error) {
	switch n := v.(type) {
	case string:
		b, ok := new(big.Int).SetString(strings.TrimSpace(n), 10)
		if !ok {
			return nil, fmt.Errorf("not an integer: %q", n)
		}
		return b, nil
	case json.Number:
		return ToBigInt(n.String())
	default:
		i, err := ToInt64(v)
		if err != nil {
			return nil, err
		}
		return big.NewInt(i), nil
	}
}
