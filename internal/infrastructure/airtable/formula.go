package airtable

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Formula builds a filterByFormula expression ANDing exact field matches
// with an optional creation-time lower bound.
func Formula(equal map[string]any, createdAfter time.Time) string {
	keys := make([]string, 0, len(equal))
	for k := range equal {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("{%s} = %s", k, literal(equal[k])))
	}
	if !createdAfter.IsZero() {
		parts = append(parts, fmt.Sprintf("IS_AFTER(CREATED_TIME(), '%s')", createdAfter.UTC().Format(time.RFC3339)))
	}
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return "AND(" + strings.Join(parts, ", ") + ")"
	}
}

func literal(v any) string {
	switch x := v.(type) {
	case bool:
		if x {
			return "TRUE()"
		}
		return "FALSE()"
	case string:
		return "'" + strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(x) + "'"
	default:
		return fmt.Sprint(x)
	}
}
