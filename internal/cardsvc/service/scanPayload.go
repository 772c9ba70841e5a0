package service

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/avvvet/idcard-services/internal/cardsvc/apperr"
)

// NormalizeScanPayload turns the shapes scanners emit into one string:
// a JSON string, an object carrying rawValue or data, or an array whose
// first element is one of those. null and empty input yield "".
func NormalizeScanPayload(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", apperr.Validation("scan.Normalize", "malformed scan payload")
		}
		return strings.TrimSpace(s), nil

	case '{':
		var obj struct {
			RawValue *string `json:"rawValue"`
			Data     *string `json:"data"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return "", apperr.Validation("scan.Normalize", "malformed scan payload")
		}
		if obj.RawValue != nil && strings.TrimSpace(*obj.RawValue) != "" {
			return strings.TrimSpace(*obj.RawValue), nil
		}
		if obj.Data != nil {
			return strings.TrimSpace(*obj.Data), nil
		}
		return "", nil

	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return "", apperr.Validation("scan.Normalize", "malformed scan payload")
		}
		if len(items) == 0 {
			return "", nil
		}
		first := bytes.TrimSpace(items[0])
		if len(first) > 0 && first[0] == '[' {
			return "", apperr.Validation("scan.Normalize", "nested scan payload")
		}
		return NormalizeScanPayload(first)
	}

	return "", apperr.Validation("scan.Normalize", "unsupported scan payload")
}
