package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"freighter/internal/classify"
	"freighter/internal/engine"
	"freighter/internal/netwatch"
	"freighter/internal/store"
	"freighter/internal/task"
	"freighter/internal/tracker"
	s3transport "freighter/internal/transport/s3"
)

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var category string
	var priority int
	var concurrency int
	var quiet bool

	cmd := &cobra.Command{
		Use:   "upload <file> [file...]",
		Short: "Upload one or more files to the configured bucket",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger()
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := store.Open(cfg)
			if err != nil {
				return err
			}
			defer st.Close()
			if _, err := st.ResetStuckUploading(runCtx); err != nil {
				return fmt.Errorf("recover journal: %w", err)
			}

			tr := tracker.New(logger)
			tr.AddSink(store.NewJournal(st, logger))

			transport, err := s3transport.New(runCtx, cfg, logger)
			if err != nil {
				return err
			}

			monitor := netwatch.New(cfg, logger)
			monitor.Start(runCtx)
			defer monitor.Stop()

			eng := engine.New(cfg, tr, transport, logger,
				engine.WithConnectivity(monitor),
				engine.WithClassifier(classify.FromConfig(cfg.Rules)),
			)
			defer eng.Destroy()

			out := cmd.OutOrStdout()
			if !quiet {
				unsubscribe := tr.Subscribe(eventPrinter(out))
				defer unsubscribe()
			}

			sessionID, err := eng.CreateSession(concurrency)
			if err != nil {
				return err
			}

			specs := make([]engine.FileSpec, len(args))
			for i, path := range args {
				specs[i] = engine.FileSpec{
					Path:     path,
					Category: category,
					Priority: priority,
				}
			}
			ids, err := eng.UploadFiles(specs, sessionID)
			if err != nil {
				return err
			}

			showProgressLine := !quiet && isatty.IsTerminal(os.Stdout.Fd())
			if err := waitForSession(runCtx, eng, tr, sessionID, out, showProgressLine); err != nil {
				return err
			}

			return summarize(tr, ids, out)
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Category for all files (default: classified from filename)")
	cmd.Flags().IntVar(&priority, "priority", 0, "Queue priority; higher uploads first")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Max simultaneous uploads for this batch (default: engine setting)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress per-file progress output")
	return cmd
}

// eventPrinter renders lifecycle events as they happen. It reads only the
// event payload; tracker methods must not be called from a subscriber.
func eventPrinter(out io.Writer) func(task.Event) {
	return func(evt task.Event) {
		if evt.Task == nil {
			if evt.Type == task.EventSessionHalted {
				fmt.Fprintf(out, "uploads halted: %s\n", evt.Message)
			}
			return
		}
		name := evt.Task.Filename
		switch evt.Type {
		case task.EventStarted:
			fmt.Fprintf(out, "%s: uploading (%s)\n", name, humanize.IBytes(uint64(evt.Task.ByteSize)))
		case task.EventCompleted:
			fmt.Fprintf(out, "%s: done\n", name)
		case task.EventFailed:
			fmt.Fprintf(out, "%s: failed (retries used %d/%d): %s\n", name, evt.Task.RetryCount, evt.Task.MaxRetries, evt.Message)
		case task.EventCancelled:
			fmt.Fprintf(out, "%s: cancelled\n", name)
		}
	}
}

// waitForSession blocks until the session settles or the context is
// cancelled, optionally repainting an aggregate progress line.
func waitForSession(ctx context.Context, eng *engine.Engine, tr *tracker.Tracker, sessionID string, out io.Writer, progressLine bool) error {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if progressLine {
				fmt.Fprintln(out)
			}
			return ctx.Err()
		case <-ticker.C:
			if progressLine {
				fmt.Fprintf(out, "\r%s\x1b[K", progressSummary(tr))
			}
			if eng.SessionSettled(sessionID) {
				if progressLine {
					fmt.Fprintln(out)
				}
				return nil
			}
		}
	}
}

func progressSummary(tr *tracker.Tracker) string {
	percent := tr.TotalProgress()
	speed := tr.OverallSpeed()
	line := fmt.Sprintf("%3d%%  %s/s", percent, humanize.IBytes(uint64(speed)))
	if eta, ok := tr.EstimatedTimeRemaining(); ok {
		line += fmt.Sprintf("  ETA %s", time.Duration(eta*float64(time.Second)).Round(time.Second))
	}
	return line
}

// summarize reports the final disposition of the batch. Any task that did
// not complete makes the command exit non-zero.
func summarize(tr *tracker.Tracker, ids []string, out io.Writer) error {
	completed := 0
	failed := 0
	for _, id := range ids {
		t, err := tr.GetTask(id)
		if err != nil {
			failed++
			continue
		}
		if t.Status == task.StatusCompleted {
			completed++
		} else {
			failed++
		}
	}
	fmt.Fprintf(out, "%d of %d files uploaded\n", completed, len(ids))
	if failed > 0 {
		return fmt.Errorf("%d of %d uploads did not complete", failed, len(ids))
	}
	return nil
}
