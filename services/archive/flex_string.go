package archive

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// FlexString absorbs archive fields that arrive as a string, a number or a
// list of strings depending on the item.
type FlexString string

func (s *FlexString) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*s = ""
	case string:
		*s = FlexString(t)
	case float64:
		*s = FlexString(strconv.FormatFloat(t, 'f', -1, 64))
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			if ps, ok := p.(string); ok {
				parts = append(parts, ps)
			}
		}
		*s = FlexString(strings.Join(parts, "\n"))
	default:
		return errors.Errorf("unexpected value %v", v)
	}
	return nil
}

func (s FlexString) String() string {
	return string(s)
}
