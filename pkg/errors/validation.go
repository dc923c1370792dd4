package errors

import (
	"regexp"
	"slices"
	"strings"
)

const maxIDLength = 128

// idRegex matches scenario and scene ids: uuids, Mongo object ids and
// author-chosen slugs. It excludes control characters and path separators.
var idRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:-]*$`)

// ValidateID checks a scenario or scene id taken from user input. Ids end up
// in file names and cache keys, so anything that could leave a directory is
// rejected.
func ValidateID(id string) error {
	switch {
	case id == "":
		return New(ErrCodeInvalidID, "id cannot be empty")
	case len(id) > maxIDLength:
		return New(ErrCodeInvalidID, "id too long (max %d characters)", maxIDLength)
	case strings.Contains(id, ".."):
		return New(ErrCodeInvalidID, "id %q contains \"..\"", id)
	case !idRegex.MatchString(id):
		return New(ErrCodeInvalidID, "invalid id %q", id)
	}
	return nil
}

// Formats lists the output formats the layout and render commands accept,
// in the order they are documented.
var Formats = []string{"json", "dot", "svg", "png"}

// ValidateFormat checks an output format name against [Formats].
func ValidateFormat(format string) error {
	if !slices.Contains(Formats, format) {
		return New(ErrCodeInvalidFormat, "unsupported format %q (want %s)", format, strings.Join(Formats, ", "))
	}
	return nil
}
