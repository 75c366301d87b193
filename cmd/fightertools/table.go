package main

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"ufcstats-scraper/fightertools/internal/models"
)

// renderFighters writes fighters as a table to w.
func renderFighters(w io.Writer, fighters []models.Fighter) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"ID", "Link", "Name", "Scraped", "Success", "Updated"})
	for _, f := range fighters {
		t.AppendRow(table.Row{
			f.ID,
			f.Link,
			f.Name,
			f.Scraped,
			successLabel(f),
			f.UpdatedAt.Local().Format("2006-01-02 15:04:05"),
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "Total", len(fighters)})
	t.Render()
}

func successLabel(f models.Fighter) string {
	switch {
	case !f.Success.Valid:
		return "-"
	case f.Success.Bool:
		return "yes"
	default:
		return "no"
	}
}
