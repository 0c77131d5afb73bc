// Package classify assigns semantic categories to filenames from ordered,
// caller-supplied pattern rules, and offers the bulk fill-in used when a
// batch is submitted without categories.
package classify
