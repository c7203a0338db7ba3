package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrNotJSONObject = errors.New("text does not contain a JSON object")

// Decode extracts a JSON object from model text.
// It tries a direct parse, then the first '{' to the last '}', then fenced code blocks.
func Decode(text string) (map[string]any, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrNotJSONObject
	}

	if obj, ok := decodeObject(text); ok {
		return obj, nil
	}

	if start := strings.Index(text, "{"); start >= 0 {
		if end := strings.LastIndex(text, "}"); end > start {
			if obj, ok := decodeObject(text[start : end+1]); ok {
				return obj, nil
			}
		}
	}

	for _, fence := range []string{"```json", "```"} {
		idx := strings.Index(text, fence)
		if idx < 0 {
			continue
		}
		after := text[idx+len(fence):]
		if end := strings.Index(after, "```"); end >= 0 {
			if obj, ok := decodeObject(strings.TrimSpace(after[:end])); ok {
				return obj, nil
			}
		}
	}

	return nil, fmt.Errorf("%w: %.200s", ErrNotJSONObject, text)
}

func decodeObject(s string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}
