package utils

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

var (
	ErrEmailRequired = errors.New("a valid email is required")
	ErrXHandle       = errors.New("x handle can only contain letters, numbers, and underscores (max 15)")
	ErrWebsiteURL    = errors.New("website url must be a valid https:// url of 200 characters or fewer")
)

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail applies the minimal shape check used at registration.
func ValidateEmail(email string) error {
	if email == "" || !strings.Contains(email, "@") || len(email) > 254 {
		return ErrEmailRequired
	}
	return nil
}

var xHandlePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// CleanXHandle strips a leading @ from an X handle.
func CleanXHandle(handle string) string {
	return strings.TrimPrefix(handle, "@")
}

// ValidateXHandle checks an optional X handle; empty is valid.
func ValidateXHandle(handle string) error {
	if handle == "" {
		return nil
	}
	cleaned := CleanXHandle(handle)
	if cleaned == "" || len(cleaned) > 15 || !xHandlePattern.MatchString(cleaned) {
		return ErrXHandle
	}
	return nil
}

// ValidateWebsiteURL checks an optional profile website; empty is valid.
func ValidateWebsiteURL(raw string) error {
	if raw == "" {
		return nil
	}
	if len(raw) > 200 || !strings.HasPrefix(raw, "https://") {
		return ErrWebsiteURL
	}
	if _, err := url.Parse(raw); err != nil {
		return ErrWebsiteURL
	}
	return nil
}
