package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"freighter/internal/store"
	"freighter/internal/task"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var clearCompleted bool
	var clearFailed bool
	var clearAll bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show finished uploads, or prune them from the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(st *store.Store) error {
				out := cmd.OutOrStdout()

				switch {
				case clearAll:
					n, err := st.Clear(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Removed %d journal entries\n", n)
					return nil
				case clearCompleted:
					n, err := st.ClearCompleted(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Removed %d completed entries\n", n)
					return nil
				case clearFailed:
					n, err := st.ClearFailed(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Removed %d failed entries\n", n)
					return nil
				}

				tasks, err := st.List(cmd.Context(),
					task.StatusCompleted, task.StatusError, task.StatusCancelled)
				if err != nil {
					return err
				}
				if len(tasks) == 0 {
					fmt.Fprintln(out, "No finished uploads")
					return nil
				}

				tt := newTaskTable("ID", "File", "Status", "Size", "Finished", "Error")
				for _, t := range tasks {
					detail := ""
					if t.Status == task.StatusError {
						detail = t.ErrorMessage
					}
					tt.addRow(
						shortID(t.ID),
						t.Filename,
						tt.statusCell(t.Status),
						humanize.IBytes(uint64(t.ByteSize)),
						t.UpdatedAt.Local().Format(time.DateTime),
						detail,
					)
				}
				fmt.Fprintln(out, tt.render())
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearCompleted, "clear-completed", false, "Remove completed entries from the journal")
	cmd.Flags().BoolVar(&clearFailed, "clear-failed", false, "Remove failed entries from the journal")
	cmd.Flags().BoolVar(&clearAll, "clear-all", false, "Remove every entry from the journal")
	return cmd
}
