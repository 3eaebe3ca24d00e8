package query

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// identifierKeys are matched exactly instead of by substring, so that an
// email or id lookup never turns into a containment search.
var identifierKeys = map[string]bool{
	"set_id":        true,
	"quiz_id":       true,
	"class_id":      true,
	"user_id":       true,
	"tutor_id":      true,
	"student_id":    true,
	"email":         true,
	"tutor_email":   true,
	"student_email": true,
	"status":        true,
	"id":            true,
	"_id":           true,
}

var blockedOperators = map[string]bool{
	"$where":    true,
	"$function": true,
	"$expr":     true,
}

// IsIdentifierKey reports whether key (snake or camel form) is exact-match.
func IsIdentifierKey(key string) bool {
	return identifierKeys[key] || identifierKeys[SnakeCase(key)]
}

// ParseFilter decodes the q parameter (a flat JSON object) and translates it.
func ParseFilter(raw string) (bson.M, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return bson.M{}, nil
	}
	var q map[string]interface{}
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	if err := dec.Decode(&q); err != nil {
		return nil, fmt.Errorf("invalid q parameter: %w", err)
	}
	if err := expectEOF(dec); err != nil {
		return nil, fmt.Errorf("invalid q parameter: %w", err)
	}
	return TranslateFilter(q), nil
}

// expectEOF fails when anything but whitespace follows the decoded value.
func expectEOF(dec *json.Decoder) error {
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON value")
	}
	return nil
}

// TranslateFilter maps a loosely typed filter onto a Mongo filter. String
// values become case-insensitive containment regexes unless the key is an
// identifier; other values pass through. When two spellings name the same
// field ("user_id" and "userId") the stored camelCase spelling wins.
// Blocked operators are dropped at any depth.
func TranslateFilter(q map[string]interface{}) bson.M {
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := bson.M{}
	exact := map[string]bool{}
	for _, key := range keys {
		if blockedOperators[key] {
			continue
		}
		field := fieldName(key)
		if exact[field] {
			continue
		}
		if key == field {
			exact[field] = true
		}
		value := q[key]
		s, isString := value.(string)
		switch {
		case IsIdentifierKey(key):
			if field == "_id" && isString {
				out[field] = objectIDOrString(s)
				continue
			}
			out[field] = plain(value)
		case isString:
			out[field] = bson.M{"$regex": regexp.QuoteMeta(s), "$options": "i"}
		default:
			out[field] = plain(value)
		}
	}
	return out
}

func fieldName(key string) string {
	if key == "id" || key == "_id" {
		return "_id"
	}
	if strings.HasPrefix(key, "$") {
		return key
	}
	return CamelCase(key)
}

func objectIDOrString(s string) interface{} {
	if oid, err := primitive.ObjectIDFromHex(s); err == nil {
		return oid
	}
	return s
}

// plain converts json.Number values into int64 or float64 and drops blocked
// operators from nested documents.
func plain(v interface{}) interface{} {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case map[string]interface{}:
		m := bson.M{}
		for k, val := range t {
			if blockedOperators[k] {
				continue
			}
			m[k] = plain(val)
		}
		return m
	case []interface{}:
		a := make(bson.A, len(t))
		for i, val := range t {
			a[i] = plain(val)
		}
		return a
	default:
		return v
	}
}
