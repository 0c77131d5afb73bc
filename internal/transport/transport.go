package transport

import (
	"context"
	"io"
)

// ProgressFunc receives the cumulative number of bytes sent so far.
type ProgressFunc func(uploadedBytes int64)

// Request describes one transfer attempt. Either Path or Body must be set;
// Body takes precedence when both are present.
type Request struct {
	Path string
	Body io.Reader

	Filename string
	ByteSize int64
	MimeType string

	// Category and FieldLabel are forwarded to transports that tag stored
	// objects; transports may ignore them.
	Category   string
	FieldLabel string
}

// Descriptor identifies a stored file on the remote end.
type Descriptor struct {
	Location string
	Key      string
	ETag     string
}

// Transport stores a single file, reporting progress along the way. The
// engine calls Transfer exactly once per attempt and treats its return as
// the sole source of truth for success or failure. Implementations must
// honor ctx cancellation and should invoke onProgress with monotonically
// non-decreasing byte counts.
type Transport interface {
	Transfer(ctx context.Context, req Request, onProgress ProgressFunc) (*Descriptor, error)
}
