package scope

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Brief keys understood by FormatBrief.
const (
	KeyTitle        = "title"
	KeyDate         = "date"
	KeyMainQuestion = "main_question"
	KeyObjectives   = "objectives"
	KeyKeyQuestions = "key_questions"
	KeyScope        = "scope"
	KeyInScope      = "in_scope"
	KeyOutOfScope   = "out_of_scope"
	KeyConstraints  = "constraints"
	KeyError        = "error"
	KeyContent      = "content"
)

const notAvailable = "N/A"

// Brief is the structured research brief decoded from the model. It may also be an
// error placeholder of the form {error, content}.
type Brief map[string]any

// Title returns the brief title or "".
func (b Brief) Title() string { return scalar(b[KeyTitle]) }

// MainQuestion returns the central research question or "".
func (b Brief) MainQuestion() string { return scalar(b[KeyMainQuestion]) }

// IsError reports whether b is an error placeholder.
func (b Brief) IsError() bool {
	_, ok := b[KeyError]
	return ok
}

// ErrorReason returns the placeholder's reason, or "".
func (b Brief) ErrorReason() string { return scalar(b[KeyError]) }

func errorBrief(reason string, content any) Brief {
	return Brief{KeyError: reason, KeyContent: content}
}

// ParseBrief extracts the research_brief record from raw model text. When the
// field is missing or is not an object, the result is an error placeholder that
// carries the raw value.
func ParseBrief(raw string) Brief {
	obj, ok := ExtractObject(raw)
	if !ok {
		return errorBrief("research_brief field missing", nil)
	}
	v, present := obj["research_brief"]
	if !present {
		return errorBrief("research_brief field missing", nil)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return errorBrief("research_brief is not a structured record", v)
	}
	return Brief(m)
}

// FormatBrief renders a brief as markdown-flavoured text. Every section header is
// always present, with N/A standing in for missing values. Any map keyed by
// strings counts as a mapping; anything else is dumped as indented JSON instead.
func FormatBrief(v any) string {
	m, ok := asMap(v)
	if !ok {
		return dump(v)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Research Brief: %s\n\n", orNA(scalar(m[KeyTitle])))
	fmt.Fprintf(&sb, "**Date:** %s\n\n", orNA(scalar(m[KeyDate])))

	if _, isErr := m[KeyError]; isErr {
		sb.WriteString("## Error\n\n")
		sb.WriteString(orNA(scalar(m[KeyError])))
		sb.WriteString("\n\n")
		if c := m[KeyContent]; c != nil {
			fmt.Fprintf(&sb, "Raw content: %s\n\n", compact(c))
		}
	}

	sb.WriteString("## Main Question\n\n")
	sb.WriteString(orNA(scalar(m[KeyMainQuestion])))
	sb.WriteString("\n\n")

	inScope, outOfScope := scopeLists(m)

	writeList(&sb, "Objectives", list(m[KeyObjectives]), true)
	writeList(&sb, "Key Questions", list(m[KeyKeyQuestions]), true)
	writeList(&sb, "In Scope", inScope, false)
	writeList(&sb, "Out of Scope", outOfScope, false)
	writeList(&sb, "Constraints", list(m[KeyConstraints]), false)

	return strings.TrimRight(sb.String(), "\n") + "\n"
}

// scopeLists reads scope.{in_scope,out_of_scope}, falling back to top-level keys.
// A scope given as plain text is treated as the in-scope description.
func scopeLists(m map[string]any) (in, out []string) {
	if s, ok := asMap(m[KeyScope]); ok {
		in, out = list(s[KeyInScope]), list(s[KeyOutOfScope])
	} else if m[KeyScope] != nil {
		in = list(m[KeyScope])
	}
	if len(in) == 0 {
		in = list(m[KeyInScope])
	}
	if len(out) == 0 {
		out = list(m[KeyOutOfScope])
	}
	return in, out
}

func writeList(sb *strings.Builder, header string, items []string, numbered bool) {
	fmt.Fprintf(sb, "## %s\n\n", header)
	if len(items) == 0 {
		sb.WriteString(notAvailable + "\n\n")
		return
	}
	for i, item := range items {
		if numbered {
			fmt.Fprintf(sb, "%d. %s\n", i+1, item)
		} else {
			fmt.Fprintf(sb, "- %s\n", item)
		}
	}
	sb.WriteString("\n")
}

func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case Brief:
		return map[string]any(t), true
	case map[string]any:
		return t, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	m := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		m[iter.Key().String()] = iter.Value().Interface()
	}
	return m, true
}

// list normalizes a list-ish value into non-empty strings.
func list(v any) []string {
	var items []string
	add := func(x any) {
		if s := scalar(x); s != "" && s != notAvailable {
			items = append(items, s)
		}
	}
	switch t := v.(type) {
	case nil:
	case []any:
		for _, x := range t {
			add(x)
		}
	case []string:
		for _, x := range t {
			add(x)
		}
	default:
		add(t)
	}
	return items
}

// scalar renders a single value as one line of text.
func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case json.Number:
		return t.String()
	default:
		return compact(t)
	}
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}

func compact(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

func dump(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v\n", v)
	}
	return string(b) + "\n"
}
