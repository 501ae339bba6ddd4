package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ID names one structure in the referential. The referential returns docids
// as JSON numbers on some query paths and as strings on others, so every ID
// is normalized to a canonical string at the ingestion boundary.
type ID string

// NewID normalizes raw user or API input into an ID.
func NewID(raw string) ID {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, `"'`)
	s = strings.TrimSpace(s)
	if isDigits(s) {
		s = strings.TrimLeft(s, "0")
		if s == "" {
			s = "0"
		}
	}
	return ID(s)
}

func (id ID) String() string {
	return string(id)
}

func (id ID) IsZero() bool {
	return id == ""
}

// IsNumeric reports whether id is a referential docid. Only numeric ids are
// safe to place in a Solr query.
func (id ID) IsNumeric() bool {
	return isDigits(string(id))
}

// UnmarshalJSON accepts both `520677` and `"520677"`.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid identifier %s: %w", data, err)
		}
		*id = NewID(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("invalid identifier %s: %w", data, err)
		}
		if _, err := n.Int64(); err != nil {
			return fmt.Errorf("identifier %s is not an integer", data)
		}
		*id = NewID(n.String())
		return nil
	}
}

// IDs converts raw values into normalized identifiers, dropping empty ones.
func IDs(raw ...string) []ID {
	out := make([]ID, 0, len(raw))
	for _, r := range raw {
		if id := NewID(r); !id.IsZero() {
			out = append(out, id)
		}
	}
	return out
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
