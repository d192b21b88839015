package service

import "time"

// nowUTC returns the current time in UTC. All persisted timestamps go through
// this so rows compare cleanly regardless of server timezone.
func nowUTC() time.Time {
	return time.Now().UTC()
}
