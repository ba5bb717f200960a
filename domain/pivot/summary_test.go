package pivot

import (
	"testing"

	"scoregaps/domain/facts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	table := facts.NewTable([]facts.FactRow{
		{Variable: "Gender", Subject: "LSAT", Jurisdiction: "US", Year: 2023, Grouping: "Male", N: 100, CohensD: facts.Float(-0.2)},
		{Variable: "Gender", Subject: "GRE", Jurisdiction: "US", Year: 2023, Grouping: "Male", N: 300, CohensD: facts.Float(0.6)},
		{Variable: "Gender", Subject: "GMAT", Jurisdiction: "US", Year: 2023, Grouping: "Male", N: 50, CohensD: nil},
		{Variable: "Gender", Subject: "GMAT", Jurisdiction: "US", Year: 2023, Grouping: "No Response", N: 5, CohensD: facts.Float(0.3)},
	})

	summary := Summarize(Pivot(table, nil).Grids["Gender"])

	require.Len(t, summary, 2)
	male := summary[0]
	assert.Equal(t, "Male", male.Grouping)
	assert.Equal(t, 2, male.Count)
	assert.InDelta(t, 0.4, male.MedianAbs, 1e-9)
	assert.InDelta(t, 0.6, male.MaxAbs, 1e-9)
	// (0.2*100 + 0.6*300) / 400
	assert.InDelta(t, 0.5, male.WeightedMeanAbs, 1e-9)

	assert.Equal(t, 1, summary[1].Count)
	assert.InDelta(t, 0.3, summary[1].WeightedMeanAbs, 1e-9)

	assert.Nil(t, Summarize(nil))
}
