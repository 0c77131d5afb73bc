package main

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"freighter/internal/task"
)

// numericColumns are right-aligned so byte counts and percentages line up.
var numericColumns = map[string]bool{
	"Progress": true,
	"Size":     true,
	"Retries":  true,
}

var statusColors = map[task.Status]text.Colors{
	task.StatusUploading: {text.FgCyan},
	task.StatusPaused:    {text.FgYellow},
	task.StatusCompleted: {text.FgGreen},
	task.StatusError:     {text.FgRed},
	task.StatusCancelled: {text.Faint},
}

// taskTable renders journal records for the status and history commands.
// Column alignment follows the column name; status cells are colored when
// stdout is a terminal.
type taskTable struct {
	headers []string
	rows    [][]string
	color   bool
}

func newTaskTable(headers ...string) *taskTable {
	return &taskTable{
		headers: headers,
		color:   isatty.IsTerminal(os.Stdout.Fd()),
	}
}

func (tt *taskTable) addRow(cells ...string) {
	tt.rows = append(tt.rows, cells)
}

func (tt *taskTable) statusCell(status task.Status) string {
	if tt.color {
		if colors, ok := statusColors[status]; ok {
			return colors.Sprint(string(status))
		}
	}
	return string(status)
}

func (tt *taskTable) render() string {
	if len(tt.headers) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(tt.headers))
	configs := make([]table.ColumnConfig, 0, len(tt.headers))
	for i, name := range tt.headers {
		header[i] = name
		align := text.AlignLeft
		if numericColumns[name] {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range tt.rows {
		cells := make(table.Row, len(tt.headers))
		for i := range cells {
			if i < len(row) {
				cells[i] = row[i]
			} else {
				cells[i] = ""
			}
		}
		tw.AppendRow(cells)
	}

	return tw.Render()
}
