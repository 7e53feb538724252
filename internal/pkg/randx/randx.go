/*
Package randx provides identifier and display-name generation.

Client and connection identifiers are UUID v4 strings; collisions are treated as
impossible for the lifetime of a process.
*/
package randx

import (
	"strings"

	"github.com/google/uuid"
)

const (
	// DefaultNamePrefix starts every generated display name.
	DefaultNamePrefix = "User_"

	// DefaultNameIDChars is how many leading characters of the client ID a generated name uses.
	DefaultNameIDChars = 4
)

// ClientID returns a fresh client identifier. A new one is issued on every join.
func ClientID() string {
	return uuid.NewString()
}

// ConnID returns a fresh identifier for a transport connection.
func ConnID() string {
	return uuid.NewString()
}

// DisplayName trims requested and falls back to "User_" plus the first characters
// of clientID when the result is blank.
func DisplayName(requested, clientID string) string {
	if trimmed := strings.TrimSpace(requested); trimmed != "" {
		return trimmed
	}

	short := clientID
	if len(short) > DefaultNameIDChars {
		short = short[:DefaultNameIDChars]
	}
	return DefaultNamePrefix + short
}
