// Package retry holds the pure backoff computation and the transfer error
// classification used by the engine to decide whether a failed attempt gets
// another one.
package retry
