// Package jsonpath reads single values out of JSON documents using a
// small JSONPath subset ($.a.b, $.items[0].name, $['key']).
package jsonpath

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Extract extracts a value from a JSON string using a JSONPath expression
func Extract(json string, path string) (string, error) {
	if json == "" {
		return "", fmt.Errorf("empty JSON string")
	}
	if path == "" {
		return "", fmt.Errorf("empty JSONPath expression")
	}

	result := gjson.Get(json, toGjsonPath(path))
	if !result.Exists() {
		return "", fmt.Errorf("path not found: %s", path)
	}
	if result.Type == gjson.Null {
		return "null", nil
	}

	return result.String(), nil
}

// Lookup reads a scalar at path from a raw response body. It reports false
// when the body is not valid JSON, the path is missing, or the value is not
// a string, number or bool.
func Lookup(body []byte, path string) (string, bool) {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return "", false
	}

	result := gjson.GetBytes(body, toGjsonPath(path))
	switch result.Type {
	case gjson.String, gjson.Number, gjson.True, gjson.False:
		return result.String(), true
	default:
		return "", false
	}
}

// toGjsonPath converts $.users[0].name to users.0.name
func toGjsonPath(path string) string {
	path = strings.TrimPrefix(path, "$")
	path = strings.TrimPrefix(path, ".")
	if path == "" {
		return "@this"
	}

	replacer := strings.NewReplacer("['", ".", "']", "", `["`, ".", `"]`, "", "[", ".", "]", "")
	path = replacer.Replace(path)

	return strings.TrimPrefix(path, ".")
}
