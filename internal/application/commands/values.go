package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"annotator/internal/application"
	"annotator/internal/domain"
)

// ParseValue builds the payload of a kind from its text form.
// Maps are written as "key=value" pairs separated by commas.
func ParseValue(kind domain.Kind, text string) (domain.Value, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &application.ValidationError{
			Field:   "value",
			Message: "value is required",
		}
	}

	switch kind {
	case domain.KindTag:
		return domain.TagValue{Name: text}, nil
	case domain.KindAttachment:
		return domain.FileValue{Name: text}, nil
	case domain.KindTerm:
		return domain.TermValue{Term: text}, nil
	case domain.KindXML:
		return domain.XMLValue{Text: text}, nil
	case domain.KindBoolean:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return nil, invalidValue(kind, text)
		}
		return domain.BooleanValue{Value: b}, nil
	case domain.KindLong:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, invalidValue(kind, text)
		}
		return domain.LongValue{Value: n}, nil
	case domain.KindDouble:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, invalidValue(kind, text)
		}
		return domain.DoubleValue{Value: f}, nil
	case domain.KindTime:
		ts, err := time.Parse(time.RFC3339, text)
		if err != nil {
			return nil, invalidValue(kind, text)
		}
		return domain.TimeValue{Value: ts}, nil
	case domain.KindMap:
		var pairs []domain.Pair
		for _, part := range strings.Split(text, ",") {
			name, value, ok := strings.Cut(part, "=")
			name = strings.TrimSpace(name)
			if !ok || name == "" {
				return nil, invalidValue(kind, text)
			}
			pairs = append(pairs, domain.Pair{Name: name, Value: strings.TrimSpace(value)})
		}
		return domain.MapValue{Pairs: pairs}, nil
	}

	return nil, fmt.Errorf("%w: %s", application.ErrInvalidKind, kind)
}

func invalidValue(kind domain.Kind, text string) error {
	return &application.ValidationError{
		Field:   "value",
		Message: fmt.Sprintf("invalid %s value: %s", kind, text),
	}
}
