// Package task defines the upload task and session models shared across the
// engine: status enums, lifecycle events, and the typed errors returned for
// illegal transitions.
//
// Treat this package as the single source of truth for lifecycle semantics;
// when you add new statuses or event types, update the tracker's transition
// checks and the journal schema alongside them.
package task
