package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"freighter/internal/store"
	"freighter/internal/task"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the upload journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				tasks, err := st.List(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(tasks) == 0 {
					fmt.Fprintln(out, "Journal is empty")
					return nil
				}

				tt := newTaskTable("ID", "File", "Category", "Status", "Progress", "Size", "Retries", "Updated")
				for _, t := range tasks {
					tt.addRow(
						shortID(t.ID),
						t.Filename,
						t.Category,
						tt.statusCell(t.Status),
						fmt.Sprintf("%d%%", t.ProgressPercent),
						humanize.IBytes(uint64(t.ByteSize)),
						fmt.Sprintf("%d/%d", t.RetryCount, t.MaxRetries),
						t.UpdatedAt.Local().Format(time.DateTime),
					)
				}
				fmt.Fprintln(out, tt.render())

				stats, err := st.Stats(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(out, statsLine(stats))
				return nil
			})
		},
	}
}

func statsLine(stats map[task.Status]int) string {
	statuses := make([]string, 0, len(stats))
	for status := range stats {
		statuses = append(statuses, string(status))
	}
	sort.Strings(statuses)
	line := "Totals:"
	for _, status := range statuses {
		line += fmt.Sprintf(" %s=%d", status, stats[task.Status(status)])
	}
	return line
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
