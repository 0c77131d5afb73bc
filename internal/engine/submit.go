package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"freighter/internal/task"
	"freighter/internal/tracker"
	"freighter/internal/transport"
)

// ErrDestroyed is returned for operations on a destroyed engine.
var ErrDestroyed = errors.New("engine destroyed")

// FileSpec describes one file to upload. Path is required unless Body is
// set on the transport request by a custom transport; Filename, ByteSize,
// and MimeType are derived from the file when empty.
type FileSpec struct {
	Path       string
	Filename   string
	ByteSize   int64
	MimeType   string
	Category   string
	FieldLabel string
	// Priority re-orders the session queue: higher drains first. Equal
	// priorities keep submission order.
	Priority int
}

// UploadFile submits one file. When sessionID is empty an implicit
// single-task session is created. The returned task id is available
// immediately; the transfer itself runs asynchronously.
func (e *Engine) UploadFile(spec FileSpec, sessionID string) (string, error) {
	ids, err := e.upload([]FileSpec{spec}, sessionID, true)
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// UploadFiles submits a batch, preserving submission order as initial queue
// order. All entries join the same session.
func (e *Engine) UploadFiles(specs []FileSpec, sessionID string) ([]string, error) {
	if len(specs) == 0 {
		return nil, errors.New("no files to upload")
	}
	return e.upload(specs, sessionID, false)
}

func (e *Engine) upload(specs []FileSpec, sessionID string, implicitOK bool) ([]string, error) {
	resolved := make([]FileSpec, len(specs))
	for i, spec := range specs {
		r, err := e.resolveSpec(spec)
		if err != nil {
			return nil, err
		}
		resolved[i] = r
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return nil, ErrDestroyed
	}

	s, err := e.sessionForSubmitLocked(sessionID, implicitOK)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(resolved))
	for i, spec := range resolved {
		t := e.tracker.CreateTask(tracker.NewTask{
			SessionID:  s.id,
			Filename:   spec.Filename,
			ByteSize:   spec.ByteSize,
			MimeType:   spec.MimeType,
			Category:   spec.Category,
			MaxRetries: e.cfg.Engine.MaxRetries,
		})
		ids[i] = t.ID
		e.files[t.ID] = transport.Request{
			Path:       spec.Path,
			Filename:   spec.Filename,
			ByteSize:   spec.ByteSize,
			MimeType:   spec.MimeType,
			Category:   spec.Category,
			FieldLabel: spec.FieldLabel,
		}
		s.taskIDs = append(s.taskIDs, t.ID)
		s.enqueue(queued{taskID: t.ID, priority: spec.Priority, seq: len(s.taskIDs) - 1})
	}

	e.admitLocked(s)
	return ids, nil
}

func (e *Engine) sessionForSubmitLocked(sessionID string, implicitOK bool) (*session, error) {
	if sessionID == "" {
		if !implicitOK {
			return nil, errors.New("session id required for batch submission")
		}
		s := &session{
			id:       newSessionID(),
			state:    task.SessionActive,
			implicit: true,
		}
		e.sessions[s.id] = s
		return s, nil
	}
	s, ok := e.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}
	if s.state == task.SessionCancelled {
		return nil, fmt.Errorf("session %s is cancelled", sessionID)
	}
	return s, nil
}

func (e *Engine) resolveSpec(spec FileSpec) (FileSpec, error) {
	if spec.Path == "" {
		return spec, errors.New("file path is required")
	}
	if spec.Filename == "" {
		spec.Filename = filepath.Base(spec.Path)
	}
	if spec.ByteSize <= 0 {
		info, err := os.Stat(spec.Path)
		if err != nil {
			return spec, fmt.Errorf("stat %s: %w", spec.Path, err)
		}
		if info.IsDir() {
			return spec, fmt.Errorf("%s is a directory", spec.Path)
		}
		spec.ByteSize = info.Size()
	}
	if spec.Category == "" && e.classifier != nil {
		if category, ok := e.classifier.Classify(spec.Filename); ok {
			spec.Category = category
		}
	}
	return spec, nil
}
