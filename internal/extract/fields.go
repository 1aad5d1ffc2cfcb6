package extract

import (
	"regexp"
	"strings"
	"time"
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Fields is the structured output of one label extraction. Every field is a
// plain string defaulting to "" so clients never see null or a missing key.
type Fields struct {
	ItemID          string `json:"item_id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Vendor          string `json:"vendor"`
	ManufactureDate string `json:"manufacture_date"`
	Categories      string `json:"categories"`
	Subcategories   string `json:"subcategories"`
}

// Record is Fields plus the hosted image URL. ImageURL stays nil when the
// object store is unconfigured or the upload failed.
type Record struct {
	Fields
	ImageURL *string `json:"imageUrl"`
}

// ValidDate reports whether s is a strict YYYY-MM-DD calendar date. Shapes
// like 2024-13-40 fail the calendar check even though they match the pattern.
func ValidDate(s string) bool {
	if !datePattern.MatchString(s) {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// SplitTokens splits a comma-joined label string into trimmed non-empty tokens.
func SplitTokens(s string) []string {
	parts := strings.Split(s, ",")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// NormalizeTokens splits, deduplicates preserving first appearance, and
// rejoins with ", ".
func NormalizeTokens(s string) string {
	return strings.Join(dedupeTokens(SplitTokens(s)), ", ")
}

func dedupeTokens(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Normalize enforces the field invariants: a manufacture date that is not
// strictly YYYY-MM-DD becomes "", and category strings pass through the
// split, dedupe, rejoin cycle.
func (f Fields) Normalize() Fields {
	if !ValidDate(f.ManufactureDate) {
		f.ManufactureDate = ""
	}
	f.Categories = NormalizeTokens(f.Categories)
	f.Subcategories = NormalizeTokens(f.Subcategories)
	return f
}
