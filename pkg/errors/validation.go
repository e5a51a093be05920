package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxNameLength bounds layer, material, and snapshot names.
const maxNameLength = 256

// ValidateLayerName validates a human-readable layer or material name.
//
// Names are free text, but they end up in DOT labels, terminal tables, and
// file names derived from snapshots, so control characters are rejected:
//   - No empty or whitespace-only names
//   - No control characters (including newlines and null bytes)
//   - Maximum length of 256 characters
func ValidateLayerName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidName, "layer name cannot be empty")
	}

	if len(name) > maxNameLength {
		return New(ErrCodeInvalidName, "layer name too long (max %d characters)", maxNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "layer name contains invalid control characters")
		}
	}

	return nil
}

// snapshotNameRegex matches names usable as a file basename and a Mongo _id.
var snapshotNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateSnapshotName validates the name of a saved stack snapshot.
// Snapshot names become file names, so they must be simple basenames.
func ValidateSnapshotName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "snapshot name cannot be empty")
	}

	if len(name) > maxNameLength {
		return New(ErrCodeInvalidName, "snapshot name too long (max %d characters)", maxNameLength)
	}

	if strings.Contains(name, "..") {
		return New(ErrCodeInvalidName, "snapshot name cannot contain path traversal sequences (..)")
	}

	if !snapshotNameRegex.MatchString(name) {
		return New(ErrCodeInvalidName, "invalid snapshot name: %q", name)
	}

	return nil
}

// ValidatePath validates a local file path given on the command line.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !IsURL(rawURL) {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}

// IsURL reports whether s looks like an http(s) URL rather than a file path.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
