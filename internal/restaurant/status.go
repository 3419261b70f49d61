package restaurant

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusDelivered Status = "delivered"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusDelivered
}

func ParseStatus(raw string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending", "0", "false":
		return StatusPending, nil
	case "delivered", "1", "true":
		return StatusDelivered, nil
	}
	return "", Errorf(KindValidation, "invalid status %q", raw)
}

// UnmarshalJSON also accepts the legacy 0/1 and boolean encodings.
func (s *Status) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	var text string
	switch v := raw.(type) {
	case string:
		text = v
	case bool:
		text = fmt.Sprint(v)
	case float64:
		if v != 0 && v != 1 {
			return Errorf(KindValidation, "invalid status %v", v)
		}
		text = fmt.Sprint(int(v))
	case nil:
		return Errorf(KindValidation, "status must not be null")
	default:
		return Errorf(KindValidation, "invalid status")
	}
	parsed, err := ParseStatus(text)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
