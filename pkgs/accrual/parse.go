package accrual

import (
	"fmt"

	"github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/utils"
)

// Field names as stored on the city object.
const (
	fieldOffice          = "office"
	fieldFactory         = "factory"
	fieldHouse           = "house"
	fieldEntertainment   = "entertainment_complex"
	fieldLastAccumulated = "last_accumulated"
	fieldLastClaimed     = "last_daily_bonus"
	fieldBalance         = "balance"

	fieldSpeed              = "speed"
	fieldAccumulationSpeeds = "accumulation_speeds"
	fieldCostMultiplier     = "cost_multiplier"
	fieldExtraCosts         = "extra_costs"
)

// ParseBuildingState turns raw object fields into a BuildingState. Missing or
// non-numeric required fields are a validation error.
func ParseBuildingState(fields map[string]interface{}) (BuildingState, error) {
	var s BuildingState
	if fields == nil {
		return s, utils.NewValidationError("city", "object has no fields")
	}

	levels := []struct {
		name string
		dst  *int
	}{
		{fieldOffice, &s.Office},
		{fieldFactory, &s.Factory},
		{fieldHouse, &s.House},
		{fieldEntertainment, &s.Entertainment},
	}
	for _, l := range levels {
		raw, ok := fields[l.name]
		if !ok {
			return s, utils.NewValidationError("city", fmt.Sprintf("missing field %s", l.name))
		}
		*l.dst = ParseLevel(raw)
	}

	stamps := []struct {
		name string
		dst  *int64
	}{
		{fieldLastAccumulated, &s.LastAccumulated},
		{fieldLastClaimed, &s.LastClaimed},
	}
	for _, st := range stamps {
		v, err := utils.ToInt64(fields[st.name])
		if err != nil {
			return s, utils.NewValidationError("city", fmt.Sprintf("field %s: %v", st.name, err))
		}
		*st.dst = v
	}

	// Balance is optional on older objects.
	if raw, ok := fields[fieldBalance]; ok {
		v, err := utils.ToInt64(raw)
		if err != nil {
			return s, utils.NewValidationError("city", fmt.Sprintf("field %s: %v", fieldBalance, err))
		}
		s.Balance = v
	}

	return s, nil
}

// ParseGameParameters turns the raw fields of the shared game object into
// GameParameters.
func ParseGameParameters(fields map[string]interface{}) (GameParameters, error) {
	var p GameParameters
	if fields == nil {
		return p, utils.NewValidationError("game", "object has no fields")
	}

	speed, err := utils.ToInt64(fields[fieldSpeed])
	if err != nil {
		return p, utils.NewValidationError("game", fmt.Sprintf("field %s: %v", fieldSpeed, err))
	}
	p.Speed = speed

	p.AccumulationSpeeds, err = parseInt64Slice(fields[fieldAccumulationSpeeds])
	if err != nil {
		return p, utils.NewValidationError("game", fmt.Sprintf("field %s: %v", fieldAccumulationSpeeds, err))
	}
	if len(p.AccumulationSpeeds) == 0 {
		return p, utils.NewValidationError("game", "accumulation speeds are empty")
	}

	if raw, ok := fields[fieldCostMultiplier]; ok {
		if p.CostMultiplier, err = utils.ToInt64(raw); err != nil {
			return p, utils.NewValidationError("game", fmt.Sprintf("field %s: %v", fieldCostMultiplier, err))
		}
	}
	if raw, ok := fields[fieldExtraCosts]; ok {
		if p.ExtraCosts, err = parseInt64Slice(raw); err != nil {
			return p, utils.NewValidationError("game", fmt.Sprintf("field %s: %v", fieldExtraCosts, err))
		}
	}

	return p, nil
}

func parseInt64Slice(v interface{}) ([]int64, error) {
	raw, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected array, got %T", v)
	}
	out := make([]int64, 0, len(raw))
	for i, item := range raw {
		n, err := utils.ToInt64(item)
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", i, err)
		}
		out = append(out, n)
	}
	return out, nil
}
