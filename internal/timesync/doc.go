// Package timesync provides the wall clock used to stamp device events and the
// background routine that keeps it aligned with an NTP server.
//
// Until the first successful exchange the clock reads the host time as-is.
// Afterwards it adds the offset learned from the most recent response.
package timesync
