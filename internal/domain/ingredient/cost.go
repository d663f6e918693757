package ingredient

import (
	"errors"
	"fmt"
	"math"
)

// CostEstimate is the price of an amount of ingredient, derived from a
// price quoted per some other unit
type CostEstimate struct {
	Amount      float64            `json:"amount"`
	Unit        string             `json:"unit"`
	CostUnit    string             `json:"cost_unit"`
	CostPerUnit float64            `json:"cost_per_unit"`
	TotalCost   float64            `json:"total_cost"`
	PerUnit     map[string]float64 `json:"per_unit,omitempty"`
}

// EstimateCost prices amount of unit given costPerUnit quoted per costUnit.
// When the two units cannot be converted into each other the quoted price
// is applied to unit unchanged. PerUnit lists the price per every unit of
// unit's dimension when unit is recognized.
func EstimateCost(units *UnitTable, amount float64, unit string, costPerUnit float64, costUnit string) (CostEstimate, error) {
	if units == nil {
		return CostEstimate{}, ErrNilTable
	}
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return CostEstimate{}, fmt.Errorf("amount %v must be a finite number >= 0", amount)
	}
	if costPerUnit < 0 || math.IsNaN(costPerUnit) || math.IsInf(costPerUnit, 0) {
		return CostEstimate{}, fmt.Errorf("cost per unit %v must be a finite number >= 0", costPerUnit)
	}

	adjusted := costPerUnit
	if CanonicalizeUnit(unit) != CanonicalizeUnit(costUnit) {
		// how many `unit` fit in one `costUnit`
		perCostUnit, err := units.Convert(1, costUnit, unit)
		switch {
		case err == nil:
			adjusted = costPerUnit / perCostUnit
		case errors.Is(err, ErrUnitUnrecognized), errors.Is(err, ErrDimensionMismatch):
			// priced as quoted
		default:
			return CostEstimate{}, err
		}
	}

	est := CostEstimate{
		Amount:      amount,
		Unit:        unit,
		CostUnit:    costUnit,
		CostPerUnit: roundCents(adjusted),
		TotalCost:   roundCents(adjusted * amount),
	}

	// one `unit` equals n of `other`
	if sheet, err := units.ConvertAll(1, unit); err == nil {
		est.PerUnit = make(map[string]float64, len(sheet))
		for other, n := range sheet {
			est.PerUnit[other] = roundCents(adjusted / n)
		}
	}

	return est, nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
