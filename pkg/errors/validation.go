package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateGraphName validates a graph name for use in cache keys and output
// file names.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of 256 characters
func ValidateGraphName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidGraph, "graph name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidGraph, "graph name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidGraph, "graph name contains invalid control characters")
		}
	}

	for _, pattern := range []string{"..", "/", "\\"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidGraph, "graph name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// passNameRegex matches registry pass names such as "reduce_transpose".
var passNameRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ValidatePassName validates a pass name as used in the registry and in
// configuration files.
func ValidatePassName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidConfig, "pass name cannot be empty")
	}
	if !passNameRegex.MatchString(name) {
		return New(ErrCodeInvalidConfig, "invalid pass name: %q (lowercase letters, digits and _ only)", name)
	}
	return nil
}

// ValidatePath validates a file path given on the command line or in a
// config file.
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
