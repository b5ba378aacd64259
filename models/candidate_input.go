// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// CandidateInput is a candidate entry from a role configuration payload.
// Clients send either a bare name ("Alice") or an object
// ({"id": "2", "name": "Alice"}); both decode to this shape. ID is empty
// for bare names and for objects without an id.
type CandidateInput struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

func (c *CandidateInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty candidate entry")
	}

	switch data[0] {
	case '"':
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*c = CandidateInput{Name: name}
		return nil
	case '{':
		var obj struct {
			ID   json.RawMessage `json:"id"`
			Name string          `json:"name"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		id, err := decodeCandidateID(obj.ID)
		if err != nil {
			return err
		}
		*c = CandidateInput{ID: id, Name: obj.Name}
		return nil
	case 'n':
		// null entries are dropped later with the other empty names
		*c = CandidateInput{}
		return nil
	}
	return fmt.Errorf("candidate entry must be a string or an object, got %s", string(data))
}

// Stored ids are strings ("1"), but older payloads carried numbers.
func decodeCandidateID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return strings.TrimSpace(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("invalid candidate id %s", string(raw))
	}
	return n.String(), nil
}

// CandidateNames wraps bare names as inputs.
func CandidateNames(names ...string) []CandidateInput {
	out := make([]CandidateInput, len(names))
	for i, n := range names {
		out[i] = CandidateInput{Name: n}
	}
	return out
}
