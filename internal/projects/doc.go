// Package projects owns on-disk project assets.
//
// Each project lives in one directory under the configured root: the raw
// recording, the JSON manifest with camera and timeline settings, the
// persisted cursor track, export outputs, and their diagnostic logs. The
// Store validates identifiers before any path join so a crafted project id
// can never escape the root.
package projects
