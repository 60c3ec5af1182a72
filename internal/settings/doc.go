// Package settings holds the device preferences that survive restarts: the
// device number, the site ID that scopes radio traffic and the three event
// category switches. The Manager owns the live copy and keeps the event log
// gate in step with it.
package settings
