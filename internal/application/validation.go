package application

import (
	"fmt"
	"strings"

	"annotator/internal/domain"
)

// ValidateRequired checks if a string field is non-empty (after trimming whitespace).
// Returns a ValidationError if the field is empty.
func ValidateRequired(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		displayName := formatFieldName(fieldName)
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s is required", displayName),
		}
	}
	return nil
}

// formatFieldName converts camelCase field names to space-separated words
// for more readable error messages (e.g., "objectType" -> "object type")
func formatFieldName(fieldName string) string {
	replacements := map[string]string{
		"objectType":   "object type",
		"objectID":     "object ID",
		"objects":      "objects",
		"kind":         "kind",
		"annotationID": "annotation ID",
		"stars":        "stars",
		"name":         "name",
	}

	if formatted, ok := replacements[fieldName]; ok {
		return formatted
	}

	return fieldName
}

// ValidateObjects checks that at least one object is given
func ValidateObjects(fieldName string, objects []domain.ObjectRef) error {
	if len(objects) == 0 {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("at least one of %s is required", formatFieldName(fieldName)),
		}
	}
	return nil
}

// ValidateKind checks that the kind can be edited as a listing.
// Ratings are edited through their own command.
func ValidateKind(fieldName string, kind domain.Kind) error {
	if kind == domain.KindUnknown || kind == domain.KindRating {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("expected an editable %s, got: %s", formatFieldName(fieldName), kind),
		}
	}
	return nil
}

// ValidateRating checks the star range
func ValidateRating(fieldName string, stars int) error {
	if stars < 0 || stars > domain.MaxRating {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s must be between 0 and %d, got: %d", formatFieldName(fieldName), domain.MaxRating, stars),
		}
	}
	return nil
}
