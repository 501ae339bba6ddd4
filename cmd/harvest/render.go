package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/agenthands/aurehal/internal/core/model"
	"github.com/agenthands/aurehal/internal/network"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

var columns = []string{"ID", "ACRONYM", "LABEL", "STATUS", "TYPE", "PUBLIS"}

func renderTable(w io.Writer, h *model.Harvest) error {
	if h.Status == model.HarvestEmpty {
		relation := "child"
		if h.Direction == model.Ancestors {
			relation = "parent"
		}
		fmt.Fprintln(w, noticeStyle.Render(fmt.Sprintf("No %s structure found for %s.", relation, h.Root)))
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(columns...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return cellStyle
		})
	for _, rec := range network.Rows(h.Records) {
		t.Row(tableRow(rec)...)
	}

	fmt.Fprintln(w, t.Render())
	fmt.Fprintf(w, "%d structures, %d relations, harvest %s\n", len(h.Records), len(h.Edges), h.ID)
	return nil
}

func tableRow(rec model.StructureRecord) []string {
	publis := "?"
	if rec.NbPublis != nil {
		publis = strconv.Itoa(*rec.NbPublis)
	}
	return []string{
		rec.ID.String(),
		rec.Acronym,
		rec.Label,
		string(rec.Status),
		string(rec.Type),
		publis,
	}
}

func renderJSON(w io.Writer, h *model.Harvest) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(h)
}
