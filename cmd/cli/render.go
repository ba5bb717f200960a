package main

import (
	"fmt"
	"strings"

	"scoregaps/app"
	"scoregaps/domain/comparison"
	"scoregaps/domain/fulltable"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).MarginTop(1)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#d6dae0"))
	cellText    = lipgloss.Color("#101F38")
)

// bandStyle paints a cell with its band colour; uncoloured cells stay plain
func bandStyle(color string) lipgloss.Style {
	if color == "" {
		return cellStyle
	}
	return cellStyle.Background(lipgloss.Color(color)).Foreground(cellText)
}

func renderGrid(g app.GridView) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(g.Variable))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("compared against " + g.Comparison))
	b.WriteString("\n")

	if len(g.Columns) == 0 {
		b.WriteString("No subgroup differs from the comparison group.")
		return b.String()
	}

	rows := make([][]string, 0, len(g.Rows))
	for _, r := range g.Rows {
		row := []string{r.Assessment}
		for _, c := range r.Cells {
			row = append(row, c.Display)
		}
		rows = append(rows, row)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(append([]string{"Assessment"}, g.Columns...)...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 0 || row < 0 || row >= len(g.Rows) {
				return cellStyle
			}
			cells := g.Rows[row].Cells
			if col-1 >= len(cells) {
				return cellStyle
			}
			return bandStyle(cells[col-1].Color).Align(lipgloss.Right)
		})
	b.WriteString(t.Render())
	return b.String()
}

func renderTable(rows []fulltable.Row) string {
	if len(rows) == 0 {
		return "No data matches the selection."
	}
	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		data = append(data, r.Cells())
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(fulltable.Columns...).
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col >= 5 {
				return cellStyle.Align(lipgloss.Right)
			}
			return cellStyle
		}).
		Render()
}

func renderLegend(entries []app.LegendEntry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, bandStyle(e.Color).Render(fmt.Sprintf("%s %s", e.Label, e.Range)))
	}
	return titleStyle.Render("Effect size") + "\n" + strings.Join(parts, " ")
}

func renderFootnotes(notes []comparison.Footnote) string {
	var b strings.Builder
	for _, n := range notes {
		fmt.Fprintf(&b, "* The comparison group for %s is %s\n", n.Variable, n.Comparison)
	}
	return mutedStyle.Render(strings.TrimSuffix(b.String(), "\n"))
}

func renderOptions(opts *app.Options, resolver *comparison.Resolver) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Variables"))
	b.WriteString("\n")
	for _, v := range opts.Variables {
		fmt.Fprintf(&b, "  %s %s\n", v, mutedStyle.Render("(vs "+resolver.Resolve(v)+")"))
	}
	b.WriteString(titleStyle.Render("Assessments"))
	b.WriteString("\n")
	for _, f := range opts.Families {
		fmt.Fprintf(&b, "  %s\n", lipgloss.NewStyle().Bold(true).Render(f.Prefix))
		for _, a := range f.Assessments {
			fmt.Fprintf(&b, "    %s\n", a)
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}
