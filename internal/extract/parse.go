package extract

import (
	"encoding/json"
	"strings"
)

// Outcome classifies how a model response was turned into Fields.
type Outcome int

const (
	// ParsedDirect means the raw response was valid JSON.
	ParsedDirect Outcome = iota
	// ParsedEmbedded means JSON was recovered from a {...} substring inside
	// surrounding prose.
	ParsedEmbedded
	// Unparseable means no JSON object could be recovered; Fields is zero.
	Unparseable
	// Empty means the model returned no text at all.
	Empty
)

func (o Outcome) String() string {
	switch o {
	case ParsedDirect:
		return "direct"
	case ParsedEmbedded:
		return "embedded"
	case Unparseable:
		return "unparseable"
	case Empty:
		return "empty"
	}
	return "unknown"
}

// ParseModelOutput parses a vision model's text response into Fields. It first
// tries the whole text as JSON, then falls back to the first balanced {...}
// substring. Parse failure yields zero Fields, never an error: a noisy model
// degrades the autofill, it must not break the request.
func ParseModelOutput(raw string) (Fields, Outcome) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Fields{}, Empty
	}

	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err == nil {
		return fieldsFromMap(m), ParsedDirect
	}

	if obj := firstJSONObject(raw); obj != "" {
		if err := json.Unmarshal([]byte(obj), &m); err == nil {
			return fieldsFromMap(m), ParsedEmbedded
		}
	}

	return Fields{}, Unparseable
}

// firstJSONObject returns the first balanced {...} substring of s, honoring
// string literals and escapes. Go's regexp cannot match nested braces, so the
// scan is manual.
func firstJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

func fieldsFromMap(m map[string]any) Fields {
	f := Fields{
		ItemID:          asString(m["item_id"]),
		Title:           asString(m["title"]),
		Description:     asString(m["description"]),
		Vendor:          asString(m["vendor"]),
		ManufactureDate: asString(m["manufacture_date"]),
		Categories:      asString(m["categories"]),
		Subcategories:   asString(m["subcategories"]),
	}
	return f.Normalize()
}

// asString coerces a decoded JSON value to string; anything non-string
// (numbers, nulls, nested objects) collapses to "".
func asString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}
