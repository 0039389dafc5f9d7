// Package notify delivers push notifications over ntfy: appointment
// reminders, transcription-ready events, and daemon errors. With no topic
// configured the service is a silent noop, so callers never branch on
// whether notifications are enabled.
package notify
