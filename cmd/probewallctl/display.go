package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/rodaine/table"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	blue   = color.New(color.FgBlue).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
)

// colourFor renders a status colour name the way the dashboard's own
// palette does, so a terminal session tells the same story as the browser.
func colourFor(c *string) string {
	if c == nil {
		return dim("blank")
	}
	switch *c {
	case "green":
		return green(*c)
	case "yellow", "orange":
		return yellow(*c)
	case "red":
		return red(*c)
	case "blue":
		return blue(*c)
	default:
		return dim(*c)
	}
}

func renderTable(rows []monitorRow) {
	headerFmt := color.New(color.FgCyan, color.Underline).SprintfFunc()
	tbl := table.New("Monitor", "Status", "Code", "Description")
	tbl.WithHeaderFormatter(headerFmt)

	for _, r := range rows {
		desc := r.Status.Description
		if desc == "" {
			desc = dim("-")
		}
		tbl.AddRow(r.ID, colourFor(r.Status.Status), fmt.Sprint(r.Status.Code), desc)
	}
	tbl.Print()
}
