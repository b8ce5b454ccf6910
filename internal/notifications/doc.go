// Package notifications sends push notifications for terminal outcomes.
//
// The ntfy-backed service fires on export success, export failure, and
// recording errors. When no topic is configured a noop implementation is
// returned so callers never branch on configuration.
package notifications
