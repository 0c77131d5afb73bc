// Package tracker maintains the current state of every upload task and the
// append-only stream of lifecycle events observers subscribe to.
//
// All task-state mutation flows through the Tracker's operations, which hold
// a single mutex; interleaving transport callbacks therefore never race, and
// events for one task always reach subscribers in lifecycle order (started,
// progress*, then exactly one terminal event). Illegal transitions and
// unknown ids return typed errors from the task package rather than silently
// succeeding.
//
// The EventHub doubles as a bounded ring buffer of recent events so CLI and
// API consumers can tail history without a subscription.
package tracker
