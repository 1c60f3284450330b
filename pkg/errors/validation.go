package errors

import (
	"strings"
	"unicode"
)

// ValidateNodeID validates a node identifier for safety and correctness.
// IDs end up in derived edge IDs, URLs, and DOT output, so the rules are
// intentionally conservative:
//   - No empty IDs
//   - No control characters or null bytes
//   - Maximum length of 128 characters
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidNode, "node ID cannot be empty")
	}

	if len(id) > 128 {
		return New(ErrCodeInvalidNode, "node ID too long (max 128 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidNode, "node ID contains control characters")
		}
	}

	return nil
}

// ValidateLevel validates the advisory level field. Levels are 1-based:
// 1 is the top of the org.
func ValidateLevel(level int) error {
	if level < 1 {
		return New(ErrCodeInvalidNode, "level must be >= 1, got %d", level)
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
