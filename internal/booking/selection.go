package booking

import (
	"fmt"
	"strings"
)

// maxDisplayedOptions bounds both the rendered list and the ordinal
// references a user can select by number.
const maxDisplayedOptions = 5

// MatchSelection resolves a user message against a previously shown list of
// options. Ordinal references win over name matches and are scanned in list
// order; names are matched as case-insensitive substrings. Returns nil when
// nothing matches.
func MatchSelection(text string, options []Option) *Option {
	msg := strings.ToLower(text)
	trimmed := strings.TrimSpace(msg)

	limit := len(options)
	if limit > maxDisplayedOptions {
		limit = maxDisplayedOptions
	}

	for i := 0; i < limit; i++ {
		ordinal := i + 1
		if trimmed == fmt.Sprintf("%d", ordinal) {
			return &options[i]
		}
		patterns := []string{
			fmt.Sprintf(" %d ", ordinal),
			fmt.Sprintf(" %d.", ordinal),
			fmt.Sprintf(" %d,", ordinal),
			fmt.Sprintf("option %d", ordinal),
			fmt.Sprintf("choice %d", ordinal),
			fmt.Sprintf("number %d", ordinal),
			fmt.Sprintf("#%d", ordinal),
			fmt.Sprintf("(%d)", ordinal),
		}
		for _, p := range patterns {
			if strings.Contains(msg, p) {
				return &options[i]
			}
		}
	}

	for i := range options {
		if name := strings.ToLower(options[i].Name); name != "" && strings.Contains(msg, name) {
			return &options[i]
		}
	}
	return nil
}
