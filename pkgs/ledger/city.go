package ledger

import (
	"context"
	"fmt"

	"github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/accrual"
)

// LoadCity reads a city object and the shared game object and parses them
// into typed accrual inputs.
func LoadCity(ctx context.Context, r Reader, cityID, gameID string) (accrual.BuildingState, accrual.GameParameters, error) {
	var (
		state  accrual.BuildingState
		params accrual.GameParameters
	)

	city, err := r.GetObject(ctx, cityID)
	if err != nil {
		return state, params, fmt.Errorf("failed to load city %s: %w", cityID, err)
	}
	if state, err = accrual.ParseBuildingState(city.Fields); err != nil {
		return state, params, err
	}

	game, err := r.GetObject(ctx, gameID)
	if err != nil {
		return state, params, fmt.Errorf("failed to load game %s: %w", gameID, err)
	}
	if params, err = accrual.ParseGameParameters(game.Fields); err != nil {
		return state, params, err
	}
	return state, params, nil
}

// CityReader loads cities against one shared game object.
type CityReader struct {
	Reader Reader
	GameID string
}

// LoadCity implements the single-argument lookup used by the HTTP layer.
func (c CityReader) LoadCity(ctx context.Context, cityID string) (accrual.BuildingState, accrual.GameParameters, error) {
	return LoadCity(ctx, c.Reader, cityID, c.GameID)
}
