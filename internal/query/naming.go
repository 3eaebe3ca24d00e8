package query

import (
	"strings"
	"unicode"
)

// CamelCase rewrites snake_case to camelCase. Leading underscores are kept
// ("_id" stays "_id") and input that is already camelCase is unchanged, so
// the function is idempotent.
func CamelCase(s string) string {
	if !strings.Contains(strings.TrimLeft(s, "_"), "_") {
		return s
	}
	lead := len(s) - len(strings.TrimLeft(s, "_"))
	parts := strings.Split(s[lead:], "_")

	var b strings.Builder
	b.WriteString(s[:lead])
	first := true
	for _, p := range parts {
		if p == "" {
			continue
		}
		if first {
			b.WriteString(p)
			first = false
			continue
		}
		r := []rune(p)
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}
	return b.String()
}

// SnakeCase rewrites camelCase to snake_case ("downloadCount" -> "download_count",
// "userID" -> "user_id").
func SnakeCase(s string) string {
	r := []rune(s)
	var b strings.Builder
	for i, c := range r {
		if unicode.IsUpper(c) {
			if i > 0 && r[i-1] != '_' {
				prevLower := unicode.IsLower(r[i-1]) || unicode.IsDigit(r[i-1])
				nextLower := i+1 < len(r) && unicode.IsLower(r[i+1])
				if prevLower || (unicode.IsUpper(r[i-1]) && nextLower) {
					b.WriteRune('_')
				}
			}
			b.WriteRune(unicode.ToLower(c))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

// CamelizeKeys rewrites the keys of decoded JSON objects to camelCase,
// recursing into nested objects and arrays.
func CamelizeKeys(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[CamelCase(k)] = CamelizeKeys(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = CamelizeKeys(val)
		}
		return out
	default:
		return v
	}
}
