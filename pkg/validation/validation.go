package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"livecast/pkg/utils"
)

var (
	// LivestreamIDRegex validates livestream ID format
	LivestreamIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

	// IdentityRegex validates viewer/moderator identity format
	IdentityRegex = regexp.MustCompile(`^[a-zA-Z0-9._@-]+$`)
)

// ValidateLivestreamID validates livestream ID format
func ValidateLivestreamID(id string) error {
	if id == "" {
		return fmt.Errorf("livestream id is required")
	}
	if len(id) > 100 {
		return fmt.Errorf("livestream id is too long (max 100 characters)")
	}
	if !LivestreamIDRegex.MatchString(id) {
		return fmt.Errorf("invalid livestream id format")
	}
	return nil
}

// ValidateIdentity validates a viewer or moderator identity
func ValidateIdentity(identity string) error {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return fmt.Errorf("identity is required")
	}
	if len(identity) > 128 {
		return fmt.Errorf("identity is too long (max 128 characters)")
	}
	if !IdentityRegex.MatchString(identity) {
		return fmt.Errorf("invalid identity format")
	}
	return nil
}

// ValidateCommentContent checks comment content bounds. Length is
// counted in runes so multi-byte text is not penalized.
func ValidateCommentContent(content string, maxLength int) error {
	if utils.IsEmpty(content) {
		return fmt.Errorf("comment content is required")
	}
	if utf8.RuneCountInString(content) > maxLength {
		return fmt.Errorf("comment content is too long (max %d characters)", maxLength)
	}
	return nil
}
