package accrual

import (
	"github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/utils"
)

const (
	hourMs = int64(3_600_000)

	// Scale converts fixed-point ledger amounts into display units.
	Scale = 1000

	baseWindowHours   = 3
	linearLevelCutoff = 7
	highLevelBase     = 10
	highLevelStep     = 2
)

// ParseLevel reads a building level from an untyped value. Numeric strings are
// accepted; negative or unparsable values floor to 0.
func ParseLevel(v interface{}) int {
	n, err := utils.ToInt64(v)
	if err != nil || n < 0 {
		return 0
	}
	return int(n)
}

// MaxAccumulationWindow returns how long, in milliseconds, a city keeps
// accruing after a claim before it saturates.
func MaxAccumulationWindow(houseLevel, entertainmentLevel int, speed int64) int64 {
	if houseLevel < 0 {
		houseLevel = 0
	}
	if entertainmentLevel < 0 {
		entertainmentLevel = 0
	}
	if speed <= 0 {
		speed = 1
	}

	total := int64(houseLevel + entertainmentLevel)
	var hours int64
	switch {
	case total == 0:
		hours = baseWindowHours
	case total <= linearLevelCutoff:
		hours = baseWindowHours + total
	default:
		hours = highLevelBase + highLevelStep*(total-linearLevelCutoff)
	}

	return hours * hourMs / speed
}

// effectiveElapsed is the accruing time since lastAccumulated, clamped at the
// window boundary measured from lastClaimed.
func effectiveElapsed(state BuildingState, params GameParameters, now int64) int64 {
	window := MaxAccumulationWindow(state.House, state.Entertainment, params.EffectiveSpeed())

	var elapsed int64
	if now-state.LastClaimed <= window {
		elapsed = now - state.LastAccumulated
	} else {
		elapsed = window - (state.LastAccumulated - state.LastClaimed)
	}
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// AccruedAmount returns the amount accrued but not yet claimed at now (ms),
// in display units.
func AccruedAmount(state BuildingState, params GameParameters, now int64) float64 {
	elapsed := effectiveElapsed(state, params, now)
	if elapsed == 0 {
		return 0
	}

	rate := params.RateFor(state.Office)
	if rate <= 0 {
		return 0
	}

	speed := params.EffectiveSpeed()
	return float64(elapsed) * float64(rate) * float64(speed) / float64(hourMs) / Scale
}

// RemainingWindow returns the milliseconds left until the current window is
// full, or 0 when it already is.
func RemainingWindow(state BuildingState, params GameParameters, now int64) int64 {
	window := MaxAccumulationWindow(state.House, state.Entertainment, params.EffectiveSpeed())
	remaining := window - (now - state.LastClaimed)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// SnapshotAt bundles the accrual figures for a single instant.
func SnapshotAt(state BuildingState, params GameParameters, now int64) Snapshot {
	remaining := RemainingWindow(state, params, now)
	return Snapshot{
		Accrued:     AccruedAmount(state, params, now),
		WindowMs:    MaxAccumulationWindow(state.House, state.Entertainment, params.EffectiveSpeed()),
		RemainingMs: remaining,
		Full:        remaining == 0,
	}
}
