package excel

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"scoregaps/domain/facts"
	"scoregaps/internal/errors"
)

// Fact table column headers. Matching is exact and case-sensitive.
const (
	ColVariable     = "Variable"
	ColSubject      = "Subject"
	ColJurisdiction = "Jurisdiction"
	ColYear         = "Year"
	ColGrouping     = "Grouping"
	ColMean         = "Mean"
	ColSD           = "SD"
	ColN            = "N"
	ColCohensD      = "Cohen's d"
)

// FactHeaders lists the required columns in reference order
var FactHeaders = []string{ColVariable, ColSubject, ColJurisdiction, ColYear, ColGrouping, ColMean, ColSD, ColN, ColCohensD}

// DecodeFacts converts raw rows into a validated fact table.
// An empty or NaN Cohen's d becomes nil; every other parse failure is a
// VALIDATION_ERROR naming the source line.
func DecodeFacts(data *ExcelData) (*facts.Table, error) {
	if err := checkHeaders(data.Headers); err != nil {
		return nil, errors.ValidationError(err.Error())
	}

	rows := make([]facts.FactRow, 0, len(data.Rows))
	for i, raw := range data.Rows {
		line := i + 2
		if i < len(data.Lines) {
			line = data.Lines[i]
		}
		row, err := decodeRow(raw)
		if err == nil {
			err = row.Validate()
		}
		if err != nil {
			return nil, errors.ValidationError(fmt.Sprintf("line %d: %v", line, err))
		}
		rows = append(rows, row)
	}
	return facts.NewTable(rows), nil
}

func checkHeaders(headers []string) error {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}
	var missing []string
	for _, h := range FactHeaders {
		if !present[h] {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

func decodeRow(raw RawRowData) (facts.FactRow, error) {
	row := facts.FactRow{
		Variable:     raw[ColVariable],
		Subject:      raw[ColSubject],
		Jurisdiction: raw[ColJurisdiction],
		Grouping:     raw[ColGrouping],
	}

	var err error
	if row.Year, err = parseInteger(raw[ColYear]); err != nil {
		return row, fmt.Errorf("%s: %w", ColYear, err)
	}
	if row.N, err = parseInteger(raw[ColN]); err != nil {
		return row, fmt.Errorf("%s: %w", ColN, err)
	}
	if row.Mean, err = parseNumber(raw[ColMean]); err != nil {
		return row, fmt.Errorf("%s: %w", ColMean, err)
	}
	if row.SD, err = parseNumber(raw[ColSD]); err != nil {
		return row, fmt.Errorf("%s: %w", ColSD, err)
	}
	if row.CohensD, err = parseOptional(raw[ColCohensD]); err != nil {
		return row, fmt.Errorf("%s: %w", ColCohensD, err)
	}
	return row, nil
}

// parseInteger accepts "2023" and integral floats such as "2023.0"
func parseInteger(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("value is empty")
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	return int(f), nil
}

func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("value is empty")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return f, nil
}

func parseOptional(s string) (*float64, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nan", "na", "n/a", "null":
		return nil, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, fmt.Errorf("%q is not a number", s)
	}
	return &f, nil
}
