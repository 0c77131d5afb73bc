// Package transport defines the pluggable transfer operation the engine
// drives: one attempt per call, cumulative progress callbacks, and typed
// errors that carry their own retryability. Concrete implementations live in
// subpackages (s3) and in test fakes.
package transport
