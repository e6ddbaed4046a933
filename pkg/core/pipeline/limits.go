package pipeline

import (
	"fmt"

	"finmodel/pkg/core/calc"
	"finmodel/pkg/models"
)

// DefaultMaxHorizon is the planning horizon, in years, the front-ends accept
// unless configured otherwise.
const DefaultMaxHorizon = 100

// CheckHorizon rejects a horizon above limit as a *calc.ParseError on the
// horizon field. limit <= 0 disables the check.
func CheckHorizon(params calc.NormalizedParameters, raw models.RawInputs, limit int) error {
	if limit <= 0 || params.Horizon <= limit {
		return nil
	}
	return &calc.ParseError{
		Field:  models.FieldHorizon,
		Value:  raw.Horizon,
		Reason: fmt.Sprintf("horizon must not exceed %d years", limit),
	}
}
