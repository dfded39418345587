package common

import "testing"

func TestExtractJSONObjects(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"bare object", `{"a":1}`, []string{`{"a":1}`}},
		{"prose wrapped", "Sure, here it is:\n{\"a\":1}\nanything else?", []string{`{"a":1}`}},
		{"code fenced", "```json\n{\"a\":1}\n```", []string{`{"a":1}`}},
		{"nested braces", `{"a":{"b":2}}`, []string{`{"a":{"b":2}}`}},
		{"two objects", `{"a":1} and {"b":2}`, []string{`{"a":1}`, `{"b":2}`}},
		{"no object", "nothing here", nil},
		{"unbalanced", `{"a":1`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractJSONObjects(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("ExtractJSONObjects(%q) = %v, want %v", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("object %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
