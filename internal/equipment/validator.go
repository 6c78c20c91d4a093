package equipment

import (
	"math"
	"strconv"
	"strings"
)

const (
	ColumnName        = "Equipment Name"
	ColumnType        = "Type"
	ColumnFlowrate    = "Flowrate"
	ColumnPressure    = "Pressure"
	ColumnTemperature = "Temperature"
)

// RequiredColumns lists the headers every upload must carry, in reporting order.
var RequiredColumns = []string{ColumnName, ColumnType, ColumnFlowrate, ColumnPressure, ColumnTemperature}

// NumericColumns must parse as numbers on every row.
var NumericColumns = []string{ColumnFlowrate, ColumnPressure, ColumnTemperature}

// Reading is one validated equipment row.
type Reading struct {
	Name        string
	Type        string
	Flowrate    float64
	Pressure    float64
	Temperature float64
}

// Validate checks the table schema and coerces the measure columns.
// Errors are reported in this order: missing columns, non-numeric values, no rows.
func Validate(t *Table) ([]Reading, error) {
	var missing []string
	for _, name := range RequiredColumns {
		if t.index(name) < 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}

	readings := make([]Reading, len(t.Rows))
	nameIdx, typeIdx := t.index(ColumnName), t.index(ColumnType)
	for i := range t.Rows {
		readings[i].Name = t.cell(i, nameIdx)
		readings[i].Type = t.cell(i, typeIdx)
	}

	for _, column := range NumericColumns {
		col := t.index(column)
		for i := range t.Rows {
			raw := t.cell(i, col)
			v, err := parseNumber(strings.TrimSpace(raw))
			if err != nil {
				return nil, &TypeError{Column: column, Row: i + 1, Value: raw}
			}
			switch column {
			case ColumnFlowrate:
				readings[i].Flowrate = v
			case ColumnPressure:
				readings[i].Pressure = v
			case ColumnTemperature:
				readings[i].Temperature = v
			}
		}
	}

	if len(readings) == 0 {
		return nil, &EmptyInputError{}
	}

	return readings, nil
}

// parseNumber rejects blanks and non-finite values so means stay finite.
func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrSyntax
	}
	return v, nil
}
