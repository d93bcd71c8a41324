package sqlite

import (
	"encoding/json"
	"fmt"

	"annotator/internal/domain"
)

// encodePayload stores the value fields as JSON; the kind is kept in its own column
func encodePayload(v domain.Value) (string, error) {
	if v == nil {
		return "", fmt.Errorf("annotation has no value")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode payload: %w", err)
	}
	return string(b), nil
}

func decodePayload(kind domain.Kind, payload string) (domain.Value, error) {
	var (
		v   domain.Value
		err error
	)
	data := []byte(payload)

	switch kind {
	case domain.KindTag:
		var t domain.TagValue
		err = json.Unmarshal(data, &t)
		v = t
	case domain.KindAttachment:
		var f domain.FileValue
		err = json.Unmarshal(data, &f)
		v = f
	case domain.KindRating:
		var r domain.RatingValue
		err = json.Unmarshal(data, &r)
		v = r
	case domain.KindBoolean:
		var b domain.BooleanValue
		err = json.Unmarshal(data, &b)
		v = b
	case domain.KindLong:
		var l domain.LongValue
		err = json.Unmarshal(data, &l)
		v = l
	case domain.KindDouble:
		var d domain.DoubleValue
		err = json.Unmarshal(data, &d)
		v = d
	case domain.KindTerm:
		var t domain.TermValue
		err = json.Unmarshal(data, &t)
		v = t
	case domain.KindXML:
		var x domain.XMLValue
		err = json.Unmarshal(data, &x)
		v = x
	case domain.KindTime:
		var t domain.TimeValue
		err = json.Unmarshal(data, &t)
		v = t
	case domain.KindMap:
		var m domain.MapValue
		err = json.Unmarshal(data, &m)
		v = m
	default:
		return nil, fmt.Errorf("unknown annotation kind in store: %s", kind)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %w", kind, err)
	}
	return v, nil
}
