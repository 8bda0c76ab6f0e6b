package errors

import (
	"strings"
	"unicode"
)

// MaxNameLength bounds sprite and atlas names. Names end up as C struct
// members and JSON keys, so anything longer is almost certainly a mistake.
const MaxNameLength = 256

// ValidateName checks that name is usable as a C identifier in generated
// code: an ASCII letter followed by ASCII letters, digits or underscores.
func ValidateName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "name cannot be empty")
	}
	if len(name) > MaxNameLength {
		return New(ErrCodeInvalidName, "name too long (max %d characters)", MaxNameLength)
	}
	if !isASCIILetter(rune(name[0])) {
		return New(ErrCodeInvalidName, "the name '%s' must match [a-zA-Z][a-zA-Z0-9_]", name)
	}
	for _, r := range name[1:] {
		if !isASCIILetter(r) && !('0' <= r && r <= '9') && r != '_' {
			return New(ErrCodeInvalidName, "the name '%s' must match [a-zA-Z][a-zA-Z0-9_]", name)
		}
	}
	return nil
}

// ValidateUnit checks the grid quantum.
func ValidateUnit(unit int) error {
	if unit <= 0 {
		return New(ErrCodeInvalidUnit, "the unit must be a positive integer, got %d", unit)
	}
	return nil
}

// ValidateDimensions checks an image's pixel size.
func ValidateDimensions(name string, w, h int) error {
	if w <= 0 || h <= 0 {
		return New(ErrCodeInvalidDimension, "%s: dimensions must be positive, got %dx%d", name, w, h)
	}
	return nil
}

// ValidatePath validates an output or input path from a spec file.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return New(ErrCodeInvalidSpec, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidSpec, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidSpec, "path contains invalid characters")
		}
	}
	return nil
}

func isASCIILetter(r rune) bool {
	return ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
}
