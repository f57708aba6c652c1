package llm

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
)

// ParseJSONResponse parses a JSON response from an LLM, handling markdown code blocks.
func ParseJSONResponse(text string) map[string]any {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	// Strip markdown code fences
	if strings.HasPrefix(text, "```") {
		lines := strings.Split(text, "\n")
		endIdx := len(lines) - 1
		for i := len(lines) - 1; i > 0; i-- {
			if strings.TrimSpace(lines[i]) == "```" {
				endIdx = i
				break
			}
		}
		text = strings.Join(lines[1:endIdx], "\n")
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		log.Printf("Failed to parse LLM response as JSON: %v", err)
		return nil
	}

	return result
}

// ParseNumber extracts a numeric field from a parsed response. Models
// sometimes quote numbers, so string values that parse as floats count.
func ParseNumber(parsed map[string]any, key string) (float64, bool) {
	if parsed == nil {
		return 0, false
	}
	switch v := parsed[key].(type) {
	case float64:
		return v, true
	case string:
		var f float64
		if _, err := fmt.Sscanf(strings.TrimSpace(v), "%g", &f); err == nil {
			return f, true
		}
	}
	return 0, false
}
