package fulltable

import (
	"math"
	"strconv"
	"testing"

	"scoregaps/domain/facts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatSortsAndRenders(t *testing.T) {
	table := facts.NewTable([]facts.FactRow{
		{Variable: "Race/Ethnicity", Subject: "SAT - Total", Jurisdiction: "US", Year: 2023, Grouping: "White", Mean: 1082.4, SD: 190.123, N: 600000, CohensD: facts.Float(0)},
		{Variable: "Gender", Subject: "NAEP - Reading - 4", Jurisdiction: "US", Year: 2019, Grouping: "Male", Mean: 216.5, SD: 38, N: 75000, CohensD: facts.Float(-0.185)},
		{Variable: "Race/Ethnicity", Subject: "LSAT", Jurisdiction: "US", Year: 2023, Grouping: "Black", Mean: 142.7, SD: 9.6, N: 9000, CohensD: nil},
		{Variable: "Race/Ethnicity", Subject: "NAEP - Reading - 4", Jurisdiction: "US", Year: 2019, Grouping: "Black", Mean: 204, SD: 38, N: 20000, CohensD: facts.Float(-0.666)},
		{Variable: "Race/Ethnicity", Subject: "GRE", Jurisdiction: "CA", Year: 2023, Grouping: "Asian", Mean: 150, SD: 8, N: 1200, CohensD: facts.Float(0.1)},
	})

	rows := Format(table)
	require.Len(t, rows, 5)

	var order []string
	for _, r := range rows {
		order = append(order, r.Variable+"|"+r.Jurisdiction+"|"+r.Year+"|"+r.Grouping+"|"+r.Subject)
	}
	assert.Equal(t, []string{
		"Gender|US|2019|Male|NAEP - Reading - 4",
		"Race/Ethnicity|CA|2023|Asian|GRE",
		"Race/Ethnicity|US|2019|Black|NAEP - Reading - 4",
		"Race/Ethnicity|US|2023|Black|LSAT",
		"Race/Ethnicity|US|2023|White|SAT - Total",
	}, order)

	assert.Equal(t, []string{"Race/Ethnicity", "US", "2019", "Black", "204.00", "38.00", "20000", "-0.67"},
		[]string{rows[2].Variable, rows[2].Jurisdiction, rows[2].Year, rows[2].Grouping, rows[2].Mean, rows[2].SD, rows[2].N, rows[2].CohensD})
	assert.Equal(t, "", rows[3].CohensD)
	assert.Equal(t, "190.12", rows[4].SD)
	assert.Equal(t, "0.00", rows[4].CohensD)
	assert.Len(t, rows[0].Cells(), len(Columns))
}

func TestFormatDoesNotAlterValues(t *testing.T) {
	table := facts.NewTable([]facts.FactRow{
		{Variable: "Gender", Subject: "LSAT", Jurisdiction: "US", Year: 2023, Grouping: "Male", Mean: 153.4567, SD: 10.005, N: 10, CohensD: facts.Float(0.123456)},
	})

	rows := Format(table)

	assert.Equal(t, 153.4567, rows[0].Source.Mean)
	assert.Equal(t, 0.123456, *rows[0].Source.CohensD)
	assert.Equal(t, 153.4567, table.Rows()[0].Mean)
}

func TestFixed2RoundTrip(t *testing.T) {
	for _, v := range []float64{0, 0.004, -0.005, 0.125, 1.999, -3.14159, 123456.789, 1e-9} {
		parsed, err := strconv.ParseFloat(Fixed2(v), 64)
		require.NoError(t, err)
		assert.InDelta(t, math.Round(v*100)/100, parsed, 0.0051, "value %v", v)
	}
	assert.Equal(t, "", Fixed2Ptr(nil))
}

func TestFormatEmpty(t *testing.T) {
	assert.Empty(t, Format(facts.NewTable(nil)))
}
