// Package s3 implements the upload transport against Amazon S3 and
// S3-compatible object stores. Objects are keyed by the configured prefix,
// the task's category, and its filename; content types are sniffed from the
// file when the caller supplies none.
package s3
