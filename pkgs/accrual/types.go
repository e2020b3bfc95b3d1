package accrual

// MaxLevel is the highest level any single building can reach.
const MaxLevel = 7

// BuildingState is a read-only snapshot of one city taken from the ledger.
// Timestamps are milliseconds since epoch.
type BuildingState struct {
	Office          int   `json:"office"`
	Factory         int   `json:"factory"`
	House           int   `json:"house"`
	Entertainment   int   `json:"entertainment"`
	LastAccumulated int64 `json:"lastAccumulated"`
	LastClaimed     int64 `json:"lastClaimed"`
	Balance         int64 `json:"balance"`
}

// GameParameters is the global game configuration shared by every city.
// It is fetched from the ledger and never mutated locally.
type GameParameters struct {
	// Speed divides every time constant; higher is faster.
	Speed int64 `json:"speed"`
	// AccumulationSpeeds is indexed by office level and holds the per-hour rate.
	AccumulationSpeeds []int64 `json:"accumulationSpeeds"`
	CostMultiplier     int64   `json:"costMultiplier"`
	ExtraCosts         []int64 `json:"extraCosts,omitempty"`
}

// EffectiveSpeed returns Speed, treating non-positive values as 1.
func (p GameParameters) EffectiveSpeed() int64 {
	if p.Speed <= 0 {
		return 1
	}
	return p.Speed
}

// RateFor returns the per-hour accrual rate for an office level, or 0 if the
// level has no configured rate.
func (p GameParameters) RateFor(officeLevel int) int64 {
	if officeLevel < 0 || officeLevel >= len(p.AccumulationSpeeds) {
		return 0
	}
	return p.AccumulationSpeeds[officeLevel]
}

// Snapshot is the accrual view of a city at one instant.
type Snapshot struct {
	Accrued     float64 `json:"accrued"`
	WindowMs    int64   `json:"windowMs"`
	RemainingMs int64   `json:"remainingMs"`
	Full        bool    `json:"full"`
}
