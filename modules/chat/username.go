package chat

import (
	"math/rand/v2"
	"strings"
)

// MaxUsernameLength caps display names; longer names are truncated, not
// rejected.
const MaxUsernameLength = 20

const (
	handlePrefix  = "anon-"
	handleCharset = "abcdefghijklmnopqrstuvwxyz0123456789"
	handleSuffix  = 4
)

// anonymousHandle produces a short randomized display name for connections
// that join without choosing one.
func anonymousHandle() string {
	b := make([]byte, handleSuffix)
	for i := range b {
		b[i] = handleCharset[rand.IntN(len(handleCharset))]
	}
	return handlePrefix + string(b)
}

// resolveDisplayName trims and truncates a custom username, falling back to
// a generated anonymous handle when nothing usable remains. Content is not
// filtered beyond the length cap.
func resolveDisplayName(custom string) string {
	name := strings.TrimSpace(custom)
	if name == "" {
		return anonymousHandle()
	}
	if runes := []rune(name); len(runes) > MaxUsernameLength {
		name = string(runes[:MaxUsernameLength])
	}
	return name
}
