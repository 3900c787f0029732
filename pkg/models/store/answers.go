package store

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Answers is an open key/value container decoded from JSON. Values are one of
// string, float64, bool, []interface{} or map[string]interface{}.
type Answers map[string]interface{}

// Text renders the value stored under key as a flat string. Sequences are
// joined with sep, mappings are rendered as JSON.
func (a Answers) Text(key, sep string) string {
	v, ok := a[key]
	if !ok {
		return ""
	}
	return FormatValue(v, sep)
}

// Keys returns the keys in lexical order.
func (a Answers) Keys() []string {
	return slices.Sorted(maps.Keys(a))
}

// FormatValue renders an open JSON value as text. Any slice type, such as a
// driver's own array type, is joined like []interface{}.
func FormatValue(v interface{}, sep string) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case []interface{}:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, FormatValue(item, sep))
		}
		return strings.Join(parts, sep)
	case []string:
		return strings.Join(val, sep)
	default:
		if rv := reflect.ValueOf(val); rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
			if rv.Type().Elem().Kind() != reflect.Uint8 {
				parts := make([]string, 0, rv.Len())
				for i := range rv.Len() {
					parts = append(parts, FormatValue(rv.Index(i).Interface(), sep))
				}
				return strings.Join(parts, sep)
			}
		}
		raw, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(raw)
	}
}
