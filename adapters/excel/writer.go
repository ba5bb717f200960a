package excel

import (
	"fmt"
	"io"
	"strings"

	"scoregaps/domain/effectsize"
	"scoregaps/domain/fulltable"
	"scoregaps/domain/pivot"

	"github.com/xuri/excelize/v2"
)

const (
	dataSheet      = "Data"
	maxSheetName   = 31
	twoDecimalsFmt = 2 // built-in "0.00"
)

// WriteWorkbook writes the full table to a "Data" sheet and each grid to its own
// sheet with cells filled by effect-size band. Values are written unrounded.
func WriteWorkbook(w io.Writer, rows []fulltable.Row, grids []*pivot.Grid) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), dataSheet); err != nil {
		return fmt.Errorf("failed to name data sheet: %w", err)
	}
	styles, err := newStyles(f)
	if err != nil {
		return err
	}
	if err := writeDataSheet(f, rows, styles); err != nil {
		return err
	}

	used := map[string]bool{dataSheet: true}
	for _, grid := range grids {
		name := sheetName(grid.Variable, used)
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to add sheet %q: %w", name, err)
		}
		if err := writeGridSheet(f, name, grid, styles); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

type sheetStyles struct {
	header  int
	decimal int
	bands   map[effectsize.Band]int
}

func newStyles(f *excelize.File) (*sheetStyles, error) {
	s := &sheetStyles{bands: make(map[effectsize.Band]int)}
	var err error
	if s.header, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	if s.decimal, err = f.NewStyle(&excelize.Style{NumFmt: twoDecimalsFmt}); err != nil {
		return nil, fmt.Errorf("failed to create number style: %w", err)
	}
	for _, band := range effectsize.Legend() {
		id, err := f.NewStyle(&excelize.Style{
			NumFmt: twoDecimalsFmt,
			Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{band.Color()}},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create %s style: %w", band, err)
		}
		s.bands[band] = id
	}
	return s, nil
}

func writeDataSheet(f *excelize.File, rows []fulltable.Row, styles *sheetStyles) error {
	header := make([]interface{}, len(fulltable.Columns))
	for i, c := range fulltable.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(dataSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := f.SetRowStyle(dataSheet, 1, 1, styles.header); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, r := range rows {
		src := r.Source
		var d interface{}
		if src.CohensD != nil {
			d = *src.CohensD
		}
		values := []interface{}{src.Variable, src.Subject, src.Jurisdiction, src.Year, src.Grouping, src.Mean, src.SD, src.N, d}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(dataSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	if len(rows) > 0 {
		if err := f.SetCellStyle(dataSheet, "F2", fmt.Sprintf("G%d", len(rows)+1), styles.decimal); err != nil {
			return err
		}
		if err := f.SetCellStyle(dataSheet, "I2", fmt.Sprintf("I%d", len(rows)+1), styles.decimal); err != nil {
			return err
		}
	}
	return f.SetColWidth(dataSheet, "A", "E", 22)
}

func writeGridSheet(f *excelize.File, sheet string, grid *pivot.Grid, styles *sheetStyles) error {
	header := []interface{}{"Assessment"}
	for _, c := range grid.Columns {
		header = append(header, c)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write grid header: %w", err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, styles.header); err != nil {
		return err
	}

	for i, row := range grid.Rows {
		label, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetCellValue(sheet, label, row.Assessment); err != nil {
			return err
		}
		for j, c := range row.Cells {
			if c.Value == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(j+2, i+2)
			if err := f.SetCellValue(sheet, cell, *c.Value); err != nil {
				return err
			}
			if id, ok := styles.bands[effectsize.Classify(*c.Value)]; ok {
				if err := f.SetCellStyle(sheet, cell, cell, id); err != nil {
					return err
				}
			}
		}
	}
	return f.SetColWidth(sheet, "A", "A", 40)
}

// sheetName makes a variable name a valid, unique worksheet name
func sheetName(variable string, used map[string]bool) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`/\?*[]:`, r) {
			return '-'
		}
		return r
	}, variable)
	if name == "" {
		name = "Grid"
	}
	if runes := []rune(name); len(runes) > maxSheetName {
		name = string(runes[:maxSheetName])
	}
	base := name
	for i := 2; used[name]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		runes := []rune(base)
		if len(runes)+len(suffix) > maxSheetName {
			runes = runes[:maxSheetName-len(suffix)]
		}
		name = string(runes) + suffix
	}
	used[name] = true
	return name
}
