package extract

import "testing"

func TestParseModelOutput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Fields
		outcome Outcome
	}{
		{
			name:    "direct json",
			input:   `{"item_id":"ITM001","title":"Widget","description":"A widget","vendor":"Acme","manufacture_date":"2023-05-01","categories":"Tools","subcategories":"Hand Tools"}`,
			want:    Fields{ItemID: "ITM001", Title: "Widget", Description: "A widget", Vendor: "Acme", ManufactureDate: "2023-05-01", Categories: "Tools", Subcategories: "Hand Tools"},
			outcome: ParsedDirect,
		},
		{
			name:    "embedded in prose",
			input:   `Here is the result: {"title":"Widget","vendor":""} Thanks!`,
			want:    Fields{Title: "Widget"},
			outcome: ParsedEmbedded,
		},
		{
			name:    "braces inside string values",
			input:   `sure! {"title":"Widget {large}","description":"has } brace"} done`,
			want:    Fields{Title: "Widget {large}", Description: "has } brace"},
			outcome: ParsedEmbedded,
		},
		{
			name:    "no json at all",
			input:   "I could not read the label, sorry.",
			outcome: Unparseable,
		},
		{
			name:    "empty response",
			input:   "   ",
			outcome: Empty,
		},
		{
			name:    "non-string values collapse to empty",
			input:   `{"title":"Widget","item_id":42,"vendor":null,"categories":["a","b"]}`,
			want:    Fields{Title: "Widget"},
			outcome: ParsedDirect,
		},
		{
			name:    "malformed date blanked",
			input:   `{"title":"Widget","manufacture_date":"2024-13-40"}`,
			want:    Fields{Title: "Widget"},
			outcome: ParsedDirect,
		},
		{
			name:    "categories deduplicated",
			input:   `{"categories":"A, B,A,  C"}`,
			want:    Fields{Categories: "A, B, C"},
			outcome: ParsedDirect,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, outcome := ParseModelOutput(tt.input)
			if outcome != tt.outcome {
				t.Fatalf("outcome=%v want=%v", outcome, tt.outcome)
			}
			if got != tt.want {
				t.Fatalf("got=%+v want=%+v", got, tt.want)
			}
		})
	}
}

func TestFirstJSONObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"nested", `x {"a":{"b":2}} y`, `{"a":{"b":2}}`},
		{"unterminated", `{"a":1`, ""},
		{"no braces", "nothing", ""},
		{"escaped quote", `{"a":"\"}"}`, `{"a":"\"}"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := firstJSONObject(tt.input); got != tt.want {
				t.Fatalf("got=%q want=%q", got, tt.want)
			}
		})
	}
}

func TestValidDate(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"2023-05-01", true},
		{"2024-13-40", false},
		{"2023-02-29", false},
		{"2023-5-1", false},
		{"20230501", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidDate(tt.input); got != tt.want {
			t.Errorf("ValidDate(%q)=%v want=%v", tt.input, got, tt.want)
		}
	}
}
