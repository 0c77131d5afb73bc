// Package netwatch observes network connectivity through a periodic HTTP
// probe and notifies subscribers on online/offline transitions.
package netwatch
