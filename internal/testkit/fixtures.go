package testkit

import (
	"math/rand"
	"sort"

	"scoregaps/domain/facts"
)

// Row builds a fact with a Cohen's d value
func Row(variable, subject, jurisdiction string, year int, grouping string, d float64) facts.FactRow {
	r := RowNoD(variable, subject, jurisdiction, year, grouping)
	r.CohensD = facts.Float(d)
	return r
}

// RowNoD builds a fact whose Cohen's d is missing
func RowNoD(variable, subject, jurisdiction string, year int, grouping string) facts.FactRow {
	return facts.FactRow{
		Variable:     variable,
		Subject:      subject,
		Jurisdiction: jurisdiction,
		Year:         year,
		Grouping:     grouping,
		Mean:         500,
		SD:           100,
		N:            1000,
	}
}

// DashboardRows is a small table covering two variables and three assessment families
func DashboardRows() []facts.FactRow {
	return []facts.FactRow{
		Row("Race/Ethnicity", "SAT - Total", "US", 2023, "Black", -0.95),
		Row("Race/Ethnicity", "SAT - Total", "US", 2023, "Asian", 0.45),
		Row("Race/Ethnicity", "SAT - Total", "US", 2023, "White", 0),
		Row("Race/Ethnicity", "LSAT", "US", 2023, "Black", -1.3),
		Row("Race/Ethnicity", "LSAT", "US", 2023, "Asian", 0.1),
		Row("Race/Ethnicity", "LSAT", "US", 2023, "White", 0),
		Row("Race/Ethnicity", "NAEP - Reading - 4", "US", 2019, "Black", -0.7),
		Row("Race/Ethnicity", "NAEP - Reading - 4", "US", 2019, "White", 0),
		Row("Gender", "SAT - Total", "US", 2023, "Male", 0.12),
		Row("Gender", "SAT - Total", "US", 2023, "Female", 0),
		Row("Gender", "LSAT", "US", 2023, "Male", 0.05),
		Row("Gender", "LSAT", "US", 2023, "Female", 0),
		RowNoD("Gender", "LSAT", "US", 2023, "Another gender"),
	}
}

// AssessmentSpec identifies one generated assessment
type AssessmentSpec struct {
	Subject      string
	Jurisdiction string
	Year         int
}

// GeneratorConfig configures RandomRows
type GeneratorConfig struct {
	Variables   map[string][]string
	Assessments []AssessmentSpec
	MissingRate float64
	Seed        int64
}

// DefaultGeneratorConfig returns a config with two variables and four assessments
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Variables: map[string][]string{
			"Gender":         {"Male", "Female", "Another gender"},
			"Race/Ethnicity": {"Black", "Hispanic", "Asian", "White"},
		},
		Assessments: []AssessmentSpec{
			{"SAT - Total", "US", 2023},
			{"SAT - Math", "US", 2023},
			{"LSAT", "US", 2023},
			{"GRE - Verbal", "US", 2023},
		},
		MissingRate: 0.1,
		Seed:        42,
	}
}

// RandomRows generates a deterministic synthetic fact table. Variables are
// emitted in sorted order so the same seed always yields the same rows.
func RandomRows(cfg GeneratorConfig) []facts.FactRow {
	rng := rand.New(rand.NewSource(cfg.Seed))
	var rows []facts.FactRow
	for _, variable := range sortedKeys(cfg.Variables) {
		for _, a := range cfg.Assessments {
			for _, g := range cfg.Variables[variable] {
				r := facts.FactRow{
					Variable:     variable,
					Subject:      a.Subject,
					Jurisdiction: a.Jurisdiction,
					Year:         a.Year,
					Grouping:     g,
					Mean:         400 + rng.Float64()*200,
					SD:           50 + rng.Float64()*100,
					N:            100 + rng.Intn(100000),
				}
				if rng.Float64() >= cfg.MissingRate {
					r.CohensD = facts.Float(rng.NormFloat64() * 0.6)
				}
				rows = append(rows, r)
			}
		}
	}
	return rows
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
