package extract

import "strings"

// Merge folds records for multiple photos of the same physical item into one.
// Per-field rules:
//
//   - item_id and imageUrl: first non-empty / non-nil wins, value untouched
//   - title and description: longest string wins as-is, first seen on ties
//   - vendor: majority vote over trimmed values, first seen breaks count ties
//   - manufacture_date: first strictly valid YYYY-MM-DD wins
//   - categories and subcategories: order-preserving deduplicated union
//
// Merging a single record reproduces it; only the category split/dedupe/join,
// the strict date check, and the vendor-vote trim can alter a lone input.
func Merge(records []Record) Record {
	var merged Record

	vendorCounts := make(map[string]int)
	var vendorOrder []string
	var catTokens, subcatTokens []string

	for _, r := range records {
		if merged.ItemID == "" {
			merged.ItemID = r.ItemID
		}
		if len(r.Title) > len(merged.Title) {
			merged.Title = r.Title
		}
		if len(r.Description) > len(merged.Description) {
			merged.Description = r.Description
		}
		if v := strings.TrimSpace(r.Vendor); v != "" {
			if _, seen := vendorCounts[v]; !seen {
				vendorOrder = append(vendorOrder, v)
			}
			vendorCounts[v]++
		}
		if merged.ManufactureDate == "" && ValidDate(r.ManufactureDate) {
			merged.ManufactureDate = r.ManufactureDate
		}
		catTokens = append(catTokens, SplitTokens(r.Categories)...)
		subcatTokens = append(subcatTokens, SplitTokens(r.Subcategories)...)
		if merged.ImageURL == nil && r.ImageURL != nil {
			merged.ImageURL = r.ImageURL
		}
	}

	best := 0
	for _, v := range vendorOrder {
		if vendorCounts[v] > best {
			best = vendorCounts[v]
			merged.Vendor = v
		}
	}

	merged.Categories = strings.Join(dedupeTokens(catTokens), ", ")
	merged.Subcategories = strings.Join(dedupeTokens(subcatTokens), ", ")
	return merged
}
