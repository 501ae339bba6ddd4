package common

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const maxSnippet = 200

// ParseJSON unmarshals a JSON object body into a type T.
// A body that is empty, not an object, or does not fit T is an error; the
// error carries a truncated copy of the body for the logs.
func ParseJSON[T any](body []byte) (T, error) {
	var zero T
	data := bytes.TrimSpace(body)

	if len(data) == 0 {
		return zero, fmt.Errorf("empty response body")
	}
	if data[0] != '{' {
		return zero, fmt.Errorf("no JSON object found in response (missing '{'): %s", Snippet(data))
	}

	var result T
	if err := json.Unmarshal(data, &result); err != nil {
		return zero, fmt.Errorf("failed to unmarshal JSON: %w\nData: %s", err, Snippet(data))
	}

	return result, nil
}

// Snippet shortens a body for error messages.
func Snippet(data []byte) string {
	if len(data) <= maxSnippet {
		return string(data)
	}
	return string(data[:maxSnippet]) + "..."
}
