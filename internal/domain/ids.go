package domain

import (
	"time"

	"github.com/google/uuid"
)

// shortIDLen matches the abbreviated container id printed by the engine CLI.
const shortIDLen = 12

// NewID returns a random UUIDv4 string.
func NewID() string {
	return uuid.NewString()
}

// ShortID abbreviates a container id for logs and displays.
func ShortID(containerID string) string {
	if len(containerID) <= shortIDLen {
		return containerID
	}
	return containerID[:shortIDLen]
}

// Clock returns the current time. Components take one so tests can pin it.
type Clock func() time.Time

// SystemClock is the wall clock.
func SystemClock() time.Time { return time.Now() }
