package effectsize

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyBoundaries(t *testing.T) {
	tests := []struct {
		value float64
		want  Band
	}{
		{0, Negligible},
		{0.2, Negligible},
		{0.2000001, Small},
		{0.4, Small},
		{0.45, SmallModerate},
		{0.6, SmallModerate},
		{0.61, Moderate},
		{0.8, Moderate},
		{0.95, ModerateLarge},
		{1.0, ModerateLarge},
		{1.1, Large},
		{1.2, Large},
		{1.2000001, VeryLarge},
		{3.5, VeryLarge},
		{math.Inf(1), VeryLarge},
		{math.NaN(), Unclassified},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.value), "value %v", tt.value)
		})
	}
}

func TestClassifySymmetry(t *testing.T) {
	for _, v := range []float64{0, 0.1, 0.2, 0.3, 0.5, 0.75, 0.9, 1.05, 1.2, 1.7, 42, math.Inf(1)} {
		assert.Equal(t, Classify(v), Classify(-v), "value %v", v)
	}
}

func TestClassifyPtr(t *testing.T) {
	assert.Equal(t, Unclassified, ClassifyPtr(nil))
	v := -0.45
	assert.Equal(t, SmallModerate, ClassifyPtr(&v))
}

func TestBandPresentation(t *testing.T) {
	assert.Equal(t, "#96D377", Negligible.Color())
	assert.Equal(t, "#EFB9CC", VeryLarge.Color())
	assert.Equal(t, "", Unclassified.Color())
	assert.Equal(t, "Small-Moderate", SmallModerate.Label())
	assert.Equal(t, "1.0 - 1.2", Large.Range())
	assert.Equal(t, "UNCLASSIFIED", Band(99).String())

	text, err := ModerateLarge.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "MODERATE_LARGE", string(text))

	var b Band
	assert.NoError(t, b.UnmarshalText(text))
	assert.Equal(t, ModerateLarge, b)
	assert.Error(t, b.UnmarshalText([]byte("HUGE")))
}

func TestLegendOrder(t *testing.T) {
	legend := Legend()
	assert.Len(t, legend, 7)
	for i := 1; i < len(legend); i++ {
		assert.Less(t, legend[i-1], legend[i])
		assert.NotEmpty(t, legend[i].Color())
	}
}
