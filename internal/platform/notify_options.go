// Package platform delivers desktop notifications on each host OS.
package platform

import "time"

// Urgency ranks a notification. Hosts without urgency levels ignore it.
type Urgency byte

const (
	UrgencyLow Urgency = iota
	UrgencyNormal
	UrgencyCritical
)

// Options configures how a notification is displayed on the host platform.
type Options struct {
	// IconPath, when non-empty, points to an image file the notification center
	// should display with the notification if supported by the platform.
	IconPath string
	Urgency  Urgency
	// Expire is how long the notification stays up; zero uses the host default.
	Expire time.Duration
}
