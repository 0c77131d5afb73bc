// Package progress computes byte-weighted aggregate metrics (overall
// percentage, combined throughput, time remaining) from per-task samples.
package progress
