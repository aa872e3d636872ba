package redis

import (
	"fmt"
	"strings"
)

// Key namespaces shared with the host agents and the reverse proxy.
const (
	// KeyPrefixTask is the prefix for host task records
	KeyPrefixTask = "queue:"
	// KeyPrefixFrontend is the prefix for frontend routing entries
	KeyPrefixFrontend = "frontend:"
	// KeyPrefixConsole is the prefix for console attach sessions
	KeyPrefixConsole = "console:"
)

// TaskKey returns the key of a host task record
func TaskKey(id string) string {
	return KeyPrefixTask + id
}

// FrontendKey returns the key of the routing entry for a domain
func FrontendKey(domain string) string {
	return KeyPrefixFrontend + domain
}

// ConsoleKey returns the key of a console session
func ConsoleKey(sessionID string) string {
	return KeyPrefixConsole + sessionID
}

// ExtractFrontendDomain returns the domain part of a frontend key
func ExtractFrontendDomain(key string) (string, error) {
	if !strings.HasPrefix(key, KeyPrefixFrontend) || len(key) == len(KeyPrefixFrontend) {
		return "", fmt.Errorf("invalid frontend key: %s", key)
	}
	return key[len(KeyPrefixFrontend):], nil
}
