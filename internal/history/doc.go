// Package history persists terminal export outcomes in SQLite.
//
// Every export task that reaches Success or Failed is recorded with its
// codec, fallback flag, derived quality metrics, and failure code. The
// in-memory task registry answers live status questions; this store answers
// "what happened to my exports last week".
package history
