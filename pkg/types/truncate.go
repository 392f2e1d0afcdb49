package types

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// Truncate returns s cut to at most limit characters. Strings already within
// the limit are returned untouched, so applying it twice changes nothing.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}

// Stringify coerces a tool input or output into text. Strings pass through,
// byte slices are decoded and everything else is serialized as JSON.
func Stringify(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case []byte:
		return string(value)
	case fmt.Stringer:
		return value.String()
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
