package common

import (
	"strings"
	"unicode"
)

// ExtractJSONObjects pulls every top-level JSON object out of a string. LLM
// responses sometimes wrap the requested JSON in prose or code fences; this
// recovers the object without caring about the wrapping.
func ExtractJSONObjects(s string) []string {
	var objects []string
	s = strings.TrimSpace(s)
	balance := 0
	start := -1

	for i, r := range s {
		if r == '{' {
			if balance == 0 {
				start = i
			}
			balance++
		} else if r == '}' {
			if balance > 0 {
				balance--
				if balance == 0 && start != -1 {
					objects = append(objects, s[start:i+1])
					start = -1
				}
			}
		} else {
			if balance == 0 && start == -1 && !unicode.IsSpace(r) {
				continue
			}
		}
	}
	return objects
}
