package scope

import (
	"encoding/json"
	"regexp"
	"strings"
)

// objectPattern matches from the first '{' to the last '}' across lines.
var objectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// ExtractObject decodes the largest brace-delimited region of raw as a JSON object.
func ExtractObject(raw string) (map[string]any, bool) {
	block := objectPattern.FindString(raw)
	if block == "" {
		return nil, false
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(block), &out); err != nil || out == nil {
		return nil, false
	}
	return out, true
}

// FallbackDecision is used whenever the model's reply cannot be understood.
func FallbackDecision() Decision {
	return Decision{NeedsClarification: true, Question: FallbackQuestion}
}

// ParseDecision turns raw model text into a Decision. It never fails: unparseable
// text yields FallbackDecision, and a missing or non-boolean flag means the model
// still needs clarification.
func ParseDecision(raw string) Decision {
	obj, ok := ExtractObject(raw)
	if !ok {
		return FallbackDecision()
	}

	needs := true
	for _, key := range []string{"need_clarification", "needs_clarification", "needsClarification"} {
		if v, present := obj[key]; present {
			if b, ok := asBool(v); ok {
				needs = b
			}
			break
		}
	}

	return Decision{
		NeedsClarification: needs,
		Question:           stringField(obj, "question"),
		Verification:       stringField(obj, "verification"),
	}
}

func asBool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}

// stringField returns obj[key] as trimmed text; "N/A" placeholders count as empty.
func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "N/A") {
		return ""
	}
	return s
}
