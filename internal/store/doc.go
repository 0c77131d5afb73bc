// Package store journals upload task records in SQLite and exposes the
// queries the CLI uses for status and history output.
//
// The database is transient bookkeeping for uploads, not a long-term
// archive. Schema changes bump the version in schema.go; users clear the
// journal to adopt the new schema. The Journal type subscribes to the
// tracker's event stream so persistence stays out of the upload hot path's
// error handling.
package store
