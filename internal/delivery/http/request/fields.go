package request

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/guregu/null.v3"
)

// FlexString accepts a JSON string or number; identifiers arrive in both forms.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*s = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = FlexString(strings.TrimSpace(str))
		return nil
	default:
		var num json.Number
		if err := json.Unmarshal(data, &num); err != nil {
			return fmt.Errorf("expected string or number, got %s", data)
		}
		*s = FlexString(num.String())
		return nil
	}
}

// FlexInt accepts a JSON integer, boolean, numeric string, empty string or null.
// Empty string and null mean absent.
type FlexInt struct {
	null.Int
}

func (i *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		i.Int = null.Int{}
		return nil
	case bytes.Equal(data, []byte("true")):
		i.Int = null.IntFrom(1)
		return nil
	case bytes.Equal(data, []byte("false")):
		i.Int = null.IntFrom(0)
		return nil
	case len(data) > 0 && data[0] == '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		v, err := ParseFlexInt(str)
		if err != nil {
			return err
		}
		i.Int = v
		return nil
	default:
		v, err := strconv.ParseInt(string(data), 10, 64)
		if err != nil {
			return fmt.Errorf("expected integer, got %s", data)
		}
		i.Int = null.IntFrom(v)
		return nil
	}
}

// ParseFlexInt reads an optional integer from form text.
func ParseFlexInt(text string) (null.Int, error) {
	text = strings.TrimSpace(text)
	switch strings.ToLower(text) {
	case "":
		return null.Int{}, nil
	case "true":
		return null.IntFrom(1), nil
	case "false":
		return null.IntFrom(0), nil
	}
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return null.Int{}, fmt.Errorf("expected integer, got %q", text)
	}
	return null.IntFrom(v), nil
}
