package eligibility

import (
	"math/big"
	"strings"
)

const (
	tokenFloorPoints = 100
	tokenMaxPoints   = 500
	tokenSpan        = tokenMaxPoints - tokenFloorPoints
)

// TokenPoints scores a fungible balance: 0 below lo, 500 at or above hi,
// otherwise a linear ramp from 100 rounded to the nearest point.
func TokenPoints(balance, lo, hi *big.Int) int64 {
	if balance == nil || lo == nil || hi == nil {
		return 0
	}
	if balance.Cmp(lo) < 0 {
		return 0
	}
	if balance.Cmp(hi) >= 0 {
		return tokenMaxPoints
	}

	num := new(big.Int).Sub(balance, lo)
	num.Mul(num, big.NewInt(tokenSpan))
	den := new(big.Int).Sub(hi, lo)

	return tokenFloorPoints + roundDiv(num, den)
}

// ActivityBonus ramps linearly from 0 to maxBonus as count approaches
// maxObjects, then stays at maxBonus.
func ActivityBonus(count, maxObjects, maxBonus int64) int64 {
	if maxObjects <= 0 || count <= 0 {
		return 0
	}
	if count >= maxObjects {
		return maxBonus
	}
	num := big.NewInt(count * maxBonus)
	return roundDiv(num, big.NewInt(maxObjects))
}

// roundDiv returns num/den rounded half up. Both must be non-negative.
func roundDiv(num, den *big.Int) int64 {
	n := new(big.Int).Mul(num, big.NewInt(2))
	n.Add(n, den)
	d := new(big.Int).Mul(den, big.NewInt(2))
	return n.Quo(n, d).Int64()
}

func containsType(objectType, key string) bool {
	return key != "" && strings.Contains(objectType, key)
}
