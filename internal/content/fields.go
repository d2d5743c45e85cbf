package content

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Fields is the open-ended bag of kind-specific values carried by services and
// sections. Values arrive decoded from JSONB or YAML, so numbers may be float64,
// int or json.Number and lists may be []any.
//
// Accessor contract:
//
//	String(key, def)  string values as stored; numbers and bools formatted; missing or blank -> def
//	First(def, keys)  String over several legacy aliases, first non-blank wins
//	Strings(key)      []string / []any of strings, or one string split on ';' and newlines
//	Float(key, def)   numbers and numeric strings; anything else -> def
//	Bool(key)         true, "true", "on", "yes", "1" and non-zero numbers
type Fields map[string]any

func (f Fields) String(key, def string) string {
	value, ok := f[key]
	if !ok || value == nil {
		return def
	}
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case json.Number:
		s = v.String()
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		s = strconv.Itoa(v)
	case int64:
		s = strconv.FormatInt(v, 10)
	case bool:
		s = strconv.FormatBool(v)
	default:
		s = fmt.Sprint(v)
	}
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func (f Fields) First(def string, keys ...string) string {
	for _, key := range keys {
		if value := f.String(key, ""); value != "" {
			return value
		}
	}
	return def
}

func (f Fields) Strings(key string) []string {
	value, ok := f[key]
	if !ok || value == nil {
		return nil
	}
	switch v := value.(type) {
	case []string:
		return compact(v)
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				items = append(items, s)
			}
		}
		return compact(items)
	case string:
		return SplitList(v)
	default:
		return nil
	}
}

func (f Fields) Float(key string, def float64) float64 {
	value, ok := f[key]
	if !ok {
		return def
	}
	if n, ok := toFloat(value); ok {
		return n
	}
	return def
}

func (f Fields) Bool(key string) bool {
	switch v := f[key].(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "on", "yes", "1":
			return true
		}
		return false
	default:
		n, ok := toFloat(v)
		return ok && n != 0
	}
}

// SplitList splits editor-entered lists on semicolons and newlines.
func SplitList(raw string) []string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ';' || r == '\n' || r == '\r'
	})
	return compact(parts)
}

func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		n, err := v.Float64()
		return n, err == nil
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return n, err == nil
	default:
		return 0, false
	}
}
