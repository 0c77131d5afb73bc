package store

import (
	"context"
	"log/slog"
	"time"

	"freighter/internal/logging"
	"freighter/internal/task"
)

// Journal adapts the Store to the tracker's event sink interface so every
// lifecycle event lands in SQLite without the tracker knowing about
// persistence.
type Journal struct {
	store  *Store
	logger *slog.Logger
}

// NewJournal wires a store into the tracker's event stream.
func NewJournal(s *Store, logger *slog.Logger) *Journal {
	return &Journal{
		store:  s,
		logger: logging.NewComponentLogger(logger, "journal"),
	}
}

// Append persists the task snapshot carried by the event. Removal events
// delete the row. Journal writes never fail the upload path; errors are
// logged and dropped.
func (j *Journal) Append(evt task.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	switch evt.Type {
	case task.EventRemoved:
		if _, err := j.store.Delete(ctx, evt.TaskID); err != nil {
			j.logger.Warn("journal delete failed",
				logging.Error(err),
				logging.String(logging.FieldTaskID, evt.TaskID),
			)
		}
	case task.EventSessionHalted:
		// Session alerts carry no task snapshot.
	default:
		if evt.Task == nil {
			return
		}
		if err := j.store.Upsert(ctx, evt.Task); err != nil {
			j.logger.Warn("journal write failed",
				logging.Error(err),
				logging.String(logging.FieldTaskID, evt.TaskID),
				logging.String(logging.FieldEventType, string(evt.Type)),
			)
		}
	}
}
