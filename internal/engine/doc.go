// Package engine schedules file uploads: it groups tasks into sessions,
// admits them into concurrent execution up to each session's bound, drives
// the injected transport, and applies the retry and outage policies.
//
// Scheduling is event-driven. Admission re-runs whenever a task leaves the
// uploading state (completion, failure, pause, cancellation), a session
// resumes, a retry backoff expires, or connectivity returns. All task-state
// mutation flows through the tracker, which serializes the interleaving
// transport callbacks; the engine's own mutex only guards session queues and
// attempt bookkeeping.
//
// A session that accumulates consecutive retryable failures halts admission
// and publishes a session alert rather than burning the remaining retry
// budget against a downed backend; RetryAll is the explicit opt-in to
// continue.
package engine
