package effectsize

import (
	"testing"

	"scoregaps/domain/comparison"
	"scoregaps/domain/facts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCohensD(t *testing.T) {
	d, ok := CohensD(Stats{Mean: 110, SD: 10, N: 50}, Stats{Mean: 100, SD: 10, N: 50})
	require.True(t, ok)
	assert.InDelta(t, 1.0, d, 1e-9)

	d, ok = CohensD(Stats{Mean: 90, SD: 8, N: 30}, Stats{Mean: 100, SD: 12, N: 70})
	require.True(t, ok)
	// pooled sd = sqrt((29*64 + 69*144) / 98)
	assert.InDelta(t, -0.9116, d, 1e-4)

	_, ok = CohensD(Stats{Mean: 1, SD: 0, N: 10}, Stats{Mean: 2, SD: 0, N: 10})
	assert.False(t, ok)
	_, ok = CohensD(Stats{Mean: 1, SD: 1, N: 1}, Stats{Mean: 2, SD: 1, N: 1})
	assert.False(t, ok)
}

func TestBackfill(t *testing.T) {
	refs := comparison.NewResolver(map[string]string{"Gender": "Female"})
	table := facts.NewTable([]facts.FactRow{
		{Variable: "Gender", Subject: "LSAT", Jurisdiction: "US", Year: 2023, Grouping: "Male", Mean: 110, SD: 10, N: 50},
		{Variable: "Gender", Subject: "LSAT", Jurisdiction: "US", Year: 2023, Grouping: "Female", Mean: 100, SD: 10, N: 50},
		{Variable: "Gender", Subject: "GRE - Verbal", Jurisdiction: "US", Year: 2023, Grouping: "Male", Mean: 150, SD: 8, N: 40, CohensD: facts.Float(0.3)},
		{Variable: "Gender", Subject: "GMAT - Total Score", Jurisdiction: "US", Year: 2023, Grouping: "Male", Mean: 550, SD: 100, N: 40},
		{Variable: "Citizenship", Subject: "LSAT", Jurisdiction: "US", Year: 2023, Grouping: "International", Mean: 150, SD: 9, N: 20},
	})

	out, filled := Backfill(table, refs)
	assert.Equal(t, 2, filled)

	rows := out.Rows()
	require.NotNil(t, rows[0].CohensD)
	assert.InDelta(t, 1.0, *rows[0].CohensD, 1e-9)
	require.NotNil(t, rows[1].CohensD)
	assert.Equal(t, 0.0, *rows[1].CohensD)
	assert.Equal(t, 0.3, *rows[2].CohensD, "precomputed values are kept")
	assert.Nil(t, rows[3].CohensD, "no reference row for GMAT")
	assert.Nil(t, rows[4].CohensD, "no reference group configured")

	assert.Nil(t, table.Rows()[0].CohensD, "input table is untouched")
}
