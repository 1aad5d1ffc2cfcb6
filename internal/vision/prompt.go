package vision

import "strings"

const labelPrompt = `You are a vision parser. Read the product label image and return ONLY valid JSON.
Required keys: item_id, title, description, vendor, manufacture_date, categories, subcategories.
- manufacture_date must be YYYY-MM-DD if present; else "".
- If a field is missing, return "" for that field.
- categories and subcategories are comma-joined label strings.
- No extra keys. No explanations. Only JSON.`

// BuildLabelPrompt returns the extraction instruction, with the caller's
// free-text hint appended as a user note when present.
func BuildLabelPrompt(hint string) string {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return labelPrompt
	}
	return labelPrompt + "\nUser note: " + hint
}
