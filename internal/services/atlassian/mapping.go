package atlassian

import (
	"encoding/json"
	"fmt"
)

// Atlassian deployments disagree on field names between Cloud and Server
// and between API versions. Aliases are tried in order; first hit wins.
var (
	personNameAliases  = []string{"displayName", "name", "display_name"}
	personIDAliases    = []string{"accountId", "key", "id", "account_id"}
	personEmailAliases = []string{"emailAddress", "email"}

	// Collection payloads arrive either as a bare array or wrapped in a
	// single-key envelope, depending on the endpoint.
	envelopeKeys = []string{"values", "boards", "sprints", "issues", "results", "spaces", "pages"}
)

func aliasString(obj map[string]interface{}, aliases []string) string {
	for _, key := range aliases {
		if v, ok := obj[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// personName extracts a display name from a person object under any of the
// known aliases. Returns "" for nil or unrecognized shapes.
func personName(v interface{}) string {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return ""
	}
	return aliasString(obj, personNameAliases)
}

// personID extracts an account identifier from a person object
func personID(v interface{}) string {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return ""
	}
	return aliasString(obj, personIDAliases)
}

// personEmail extracts an email address from a person object
func personEmail(v interface{}) string {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return ""
	}
	return aliasString(obj, personEmailAliases)
}

// unwrapCollection normalizes a raw payload into a list of objects. It
// accepts a bare JSON array or an object wrapping one under an envelope
// key. Malformed or unrecognized payloads yield an empty list so list
// operations degrade instead of failing.
func unwrapCollection(raw json.RawMessage) []map[string]interface{} {
	if len(raw) == 0 {
		return nil
	}

	var direct []map[string]interface{}
	if err := json.Unmarshal(raw, &direct); err == nil {
		return direct
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil
	}
	for _, key := range envelopeKeys {
		inner, ok := wrapped[key]
		if !ok {
			continue
		}
		var items []map[string]interface{}
		if err := json.Unmarshal(inner, &items); err == nil {
			return items
		}
	}
	return nil
}

// unwrapObject parses a raw payload as a single JSON object, or nil
func unwrapObject(raw json.RawMessage) map[string]interface{} {
	if len(raw) == 0 {
		return nil
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}
	return obj
}

// stringAt returns obj[key] as a string, tolerating missing keys
func stringAt(obj map[string]interface{}, key string) string {
	if obj == nil {
		return ""
	}
	if s, ok := obj[key].(string); ok {
		return s
	}
	return ""
}

// intAt returns obj[key] as an int, handling JSON's float64 numbers and
// numeric strings
func intAt(obj map[string]interface{}, key string) int {
	if obj == nil {
		return 0
	}
	switch v := obj[key].(type) {
	case float64:
		return int(v)
	case string:
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}
	}
	return 0
}

// nestedString walks a path of object keys and returns the terminal string
func nestedString(obj map[string]interface{}, path ...string) string {
	current := obj
	for i, key := range path {
		if current == nil {
			return ""
		}
		if i == len(path)-1 {
			return stringAt(current, key)
		}
		next, ok := current[key].(map[string]interface{})
		if !ok {
			return ""
		}
		current = next
	}
	return ""
}
