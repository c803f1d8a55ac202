package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// IDList is the canonical form of winner information. Upstream sources send a
// single value, an array, or a JSON-encoded string of either; all of them are
// normalized here.
type IDList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *IDList) UnmarshalJSON(data []byte) error {
	ids, err := ParseIDList(data)
	if err != nil {
		return err
	}
	*l = ids
	return nil
}

// ParseIDList normalizes raw winner JSON into an IDList. null and empty input
// yield an empty list.
func ParseIDList(raw []byte) (IDList, error) {
	return parseIDList(raw, 0)
}

func parseIDList(raw []byte, depth int) (IDList, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return IDList{}, nil
	}
	if depth > 2 {
		return nil, fmt.Errorf("winner list nested too deeply")
	}

	switch raw[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("decode winner array: %w", err)
		}
		out := make(IDList, 0, len(items))
		for _, item := range items {
			id, err := scalarID(item)
			if err != nil {
				return nil, err
			}
			if id != "" {
				out = append(out, id)
			}
		}
		return out, nil

	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("decode winner string: %w", err)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return IDList{}, nil
		}
		// A string that itself holds JSON is decoded once more.
		if s[0] == '[' || s[0] == '"' {
			return parseIDList([]byte(s), depth+1)
		}
		return IDList{s}, nil

	default:
		id, err := scalarID(raw)
		if err != nil {
			return nil, err
		}
		if id == "" {
			return IDList{}, nil
		}
		return IDList{id}, nil
	}
}

func scalarID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("decode winner id: %w", err)
		}
		return strings.TrimSpace(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("decode winner id %s: %w", string(raw), err)
	}
	return n.String(), nil
}

// Contains reports whether id is in the list.
func (l IDList) Contains(id string) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}
