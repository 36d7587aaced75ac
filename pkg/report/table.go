package report

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/NobleMathews/dev-versioner/pkg/resolver"
)

var (
	colorGray = lipgloss.Color("245")
	colorDim  = lipgloss.Color("240")
	colorRed  = lipgloss.Color("167")

	headerStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	errorStyle  = cellStyle.Foreground(colorRed)
)

// Table renders one row per result: package, version, license and
// dependency count, or the error for failed packages.
func Table(results resolver.Results) string {
	rows := make([][]string, 0, len(results))
	failed := make(map[int]bool)
	for i, r := range results {
		if r.Err != nil {
			failed[i] = true
			rows = append(rows, []string{r.ID, "", "", "", string(errorCode(r.Err))})
			continue
		}
		rec := r.Record
		rows = append(rows, []string{
			r.ID,
			versionLabel(rec.Version),
			rec.License,
			strconv.Itoa(rec.Dependencies.Len()),
			"",
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Package", "Version", "License", "Deps", "Error").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle.Padding(0, 1)
			case failed[row]:
				return errorStyle
			default:
				return cellStyle
			}
		})
	return t.String()
}
