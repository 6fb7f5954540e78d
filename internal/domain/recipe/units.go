package recipe

import "math"

// Dimension groups units that can be converted into each other
type Dimension string

const (
	DimensionWeight Dimension = "weight"
	DimensionVolume Dimension = "volume"
	DimensionCount  Dimension = "count"
)

type unitInfo struct {
	dimension Dimension
	toBase    float64 // multiplier into g, ml or piece
}

var unitTable = map[MeasurementUnit]unitInfo{
	MeasurementUnitGram:       {DimensionWeight, 1},
	MeasurementUnitKilogram:   {DimensionWeight, 1000},
	MeasurementUnitOunce:      {DimensionWeight, 28.349523125},
	MeasurementUnitPound:      {DimensionWeight, 453.59237},
	MeasurementUnitMilliliter: {DimensionVolume, 1},
	MeasurementUnitLiter:      {DimensionVolume, 1000},
	MeasurementUnitTeaspoon:   {DimensionVolume, 4.92892159375},
	MeasurementUnitTablespoon: {DimensionVolume, 14.78676478125},
	MeasurementUnitCup:        {DimensionVolume, 236.5882365},
	MeasurementUnitPiece:      {DimensionCount, 1},
	MeasurementUnitDozen:      {DimensionCount, 12},
}

// Dimension returns the dimension the unit measures
func (u MeasurementUnit) Dimension() Dimension {
	return unitTable[u].dimension
}

// Compatible reports whether quantities in u and other can be summed
func (u MeasurementUnit) Compatible(other MeasurementUnit) bool {
	a, okA := unitTable[u]
	b, okB := unitTable[other]
	return okA && okB && a.dimension == b.dimension
}

// Convert converts qty from one unit to another through the dimension's base
// unit and rounds the result to the given number of decimals. A negative
// decimals value disables rounding.
func Convert(qty float64, from, to MeasurementUnit, decimals int) (float64, error) {
	if from == to {
		return Round(qty, decimals), nil
	}
	if !from.Compatible(to) {
		return 0, ErrIncompatibleUnits
	}
	base := qty * unitTable[from].toBase
	return Round(base/unitTable[to].toBase, decimals), nil
}

// Round rounds v half away from zero to the given number of decimals
func Round(v float64, decimals int) float64 {
	if decimals < 0 {
		return v
	}
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
