package hostfunc

import (
	"encoding/json"
	"errors"
)

// StringArg returns args[key] as a string. Missing or non-string values are an error.
func StringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key].(string)
	if !ok {
		return "", errors.New(key + " required")
	}
	return v, nil
}

// JSONTextArg returns args[key] as JSON text. Strings are passed through untouched so
// callers can hand over already-encoded payloads; any other value is encoded.
func JSONTextArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return "", errors.New(key + " required")
	}
	if s, ok := v.(string); ok {
		return s, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", errors.New(key + " not encodable: " + err.Error())
	}
	return string(data), nil
}
