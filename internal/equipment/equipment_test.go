package equipment

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "Equipment Name,Type,Flowrate,Pressure,Temperature\n"

func mustRead(t *testing.T, data string) *Table {
	t.Helper()
	table, err := ReadCSV(strings.NewReader(data))
	require.NoError(t, err)
	return table
}

func TestValidate_MissingColumns(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		missing []string
	}{
		{
			name:    "type missing",
			data:    "Equipment Name,Flowrate,Pressure,Temperature\nP1,1,2,3\n",
			missing: []string{"Type"},
		},
		{
			name:    "two measures missing",
			data:    "Equipment Name,Type,Pressure\nP1,Pump,2\n",
			missing: []string{"Flowrate", "Temperature"},
		},
		{
			name:    "only unrelated columns",
			data:    "a,b\n1,2\n",
			missing: RequiredColumns,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(mustRead(t, tt.data))
			var schemaErr *SchemaError
			require.True(t, errors.As(err, &schemaErr), "expected SchemaError, got %v", err)
			assert.Equal(t, tt.missing, schemaErr.Missing)
		})
	}
}

func TestValidate_NonNumeric(t *testing.T) {
	data := header + "P1,Pump,10,20,30\nP2,Pump,12,high,31\n"
	_, err := Validate(mustRead(t, data))

	var typeErr *TypeError
	require.True(t, errors.As(err, &typeErr))
	assert.Equal(t, "Pressure", typeErr.Column)
	assert.Equal(t, 2, typeErr.Row)
	assert.Equal(t, "high", typeErr.Value)
	assert.Equal(t, "Column Pressure must be numeric", typeErr.Error())
}

func TestValidate_BlankNumericCell(t *testing.T) {
	data := header + "P1,Pump,,20,30\n"
	_, err := Validate(mustRead(t, data))

	var typeErr *TypeError
	require.True(t, errors.As(err, &typeErr))
	assert.Equal(t, "Flowrate", typeErr.Column)
}

func TestValidate_Empty(t *testing.T) {
	_, err := Validate(mustRead(t, header))
	var emptyErr *EmptyInputError
	assert.True(t, errors.As(err, &emptyErr))

	_, err = ReadCSV(strings.NewReader(""))
	assert.True(t, errors.As(err, &emptyErr))
}

func TestValidate_SchemaCheckedBeforeEmptiness(t *testing.T) {
	_, err := Validate(mustRead(t, "Equipment Name,Type\n"))
	var schemaErr *SchemaError
	assert.True(t, errors.As(err, &schemaErr))
}

func TestValidate_CoercesMeasures(t *testing.T) {
	data := "\ufeff" + header + "P1,Pump, 10.5 ,2e1,-3\n\n"
	readings, err := Validate(mustRead(t, data))
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Equal(t, Reading{Name: "P1", Type: "Pump", Flowrate: 10.5, Pressure: 20, Temperature: -3}, readings[0])
}

func TestValidate_TypeKeptVerbatim(t *testing.T) {
	data := header +
		"P1,Pump,1,1,1\n" +
		"P2, Pump,1,1,1\n" +
		"P3,Pump ,1,1,1\n" +
		"P4,Pump,1,1,1\n"
	readings, err := Validate(mustRead(t, data))
	require.NoError(t, err)

	stats := Aggregate(readings)
	assert.Equal(t, map[string]int{"Pump": 2, " Pump": 1, "Pump ": 1}, stats.TypeDistribution)
}

func TestReadCSV_RaggedRow(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(header + "P1,Pump,1,2,3,4\n"))
	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Contains(t, parseErr.Error(), "Invalid CSV file")
}

func TestAggregate(t *testing.T) {
	readings := []Reading{
		{Type: "A", Flowrate: 10, Pressure: 20, Temperature: 30},
		{Type: "A", Flowrate: 20, Pressure: 30, Temperature: 40},
		{Type: "B", Flowrate: 30, Pressure: 40, Temperature: 50},
	}

	stats := Aggregate(readings)

	assert.Equal(t, 3, stats.Count)
	assert.InDelta(t, 20.0, stats.AvgFlowrate, 1e-9)
	assert.InDelta(t, 30.0, stats.AvgPressure, 1e-9)
	assert.InDelta(t, 40.0, stats.AvgTemperature, 1e-9)
	assert.Equal(t, map[string]int{"A": 2, "B": 1}, stats.TypeDistribution)
}

func TestAggregate_HugeValuesStayFinite(t *testing.T) {
	data := header +
		"P1,Pump,1e308,-1e308,1.7e308\n" +
		"P2,Pump,1e308,-1e308,1.7e308\n" +
		"P3,Valve,1e308,-1e308,1.7e308\n"
	readings, err := Validate(mustRead(t, data))
	require.NoError(t, err)

	stats := Aggregate(readings)
	for _, v := range []float64{stats.AvgFlowrate, stats.AvgPressure, stats.AvgTemperature} {
		assert.False(t, math.IsInf(v, 0) || math.IsNaN(v), "mean %v is not finite", v)
	}
	assert.InEpsilon(t, 1e308, stats.AvgFlowrate, 1e-9)
	assert.InEpsilon(t, -1e308, stats.AvgPressure, 1e-9)
	assert.InEpsilon(t, 1.7e308, stats.AvgTemperature, 1e-9)
}

func TestAggregate_DistributionSumsToCount(t *testing.T) {
	data := header +
		"P1,Pump,1,1,1\n" +
		"V1,Valve,2,2,2\n" +
		"P2,Pump,3,3,3\n" +
		"R1,Reactor,4,4,4\n" +
		"p3,pump,5,5,5\n"
	readings, err := Validate(mustRead(t, data))
	require.NoError(t, err)

	stats := Aggregate(readings)
	total := 0
	for _, c := range stats.TypeDistribution {
		total += c
	}
	assert.Equal(t, stats.Count, total)
	assert.Equal(t, 1, stats.TypeDistribution["pump"])
	assert.Equal(t, 2, stats.TypeDistribution["Pump"])
}

func TestSortedDistribution(t *testing.T) {
	got := SortedDistribution(map[string]int{"Valve": 1, "Pump": 3, "HX": 1})
	assert.Equal(t, []TypeCount{{"Pump", 3}, {"HX", 1}, {"Valve", 1}}, got)
}
