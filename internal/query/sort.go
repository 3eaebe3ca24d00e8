package query

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// ParseSort reads the sort parameter. The JSON object form keeps key order;
// a plain "field,-other" list is accepted too. Keys are camelCased.
func ParseSort(raw string) (bson.D, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if !strings.HasPrefix(raw, "{") {
		return parseSortList(raw), nil
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("invalid sort parameter: %w", err)
	}

	var out bson.D
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("invalid sort parameter: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("invalid sort parameter: unexpected %v", tok)
		}
		var val interface{}
		if err := dec.Decode(&val); err != nil {
			return nil, fmt.Errorf("invalid sort parameter: %w", err)
		}
		out = append(out, bson.E{Key: CamelCase(key), Value: sortDirection(val)})
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("invalid sort parameter: %w", err)
	}
	if err := expectEOF(dec); err != nil {
		return nil, fmt.Errorf("invalid sort parameter: %w", err)
	}
	return out, nil
}

// CamelizeSort rewrites every key of an existing sort document.
func CamelizeSort(sort bson.D) bson.D {
	out := make(bson.D, 0, len(sort))
	for _, e := range sort {
		out = append(out, bson.E{Key: CamelCase(e.Key), Value: e.Value})
	}
	return out
}

func parseSortList(raw string) bson.D {
	var out bson.D
	for _, f := range strings.Split(raw, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		dir := 1
		if strings.HasPrefix(f, "-") {
			dir = -1
			f = f[1:]
		}
		out = append(out, bson.E{Key: CamelCase(f), Value: dir})
	}
	return out
}

func sortDirection(v interface{}) int {
	switch t := v.(type) {
	case json.Number:
		if f, err := t.Float64(); err == nil && f < 0 {
			return -1
		}
		return 1
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "desc", "descending", "-1":
			return -1
		}
		return 1
	case bool:
		if !t {
			return -1
		}
		return 1
	}
	return 1
}

// Paginate parses limit and offset. limit falls back to def when missing or
// not positive and is clamped to maxLimit; offset is clamped to >= 0.
func Paginate(limitRaw, offsetRaw string, def, maxLimit int64) (limit, offset int64) {
	if def <= 0 {
		def = 50
	}
	if maxLimit <= 0 {
		maxLimit = def
	}
	limit = def
	if n, err := strconv.ParseInt(strings.TrimSpace(limitRaw), 10, 64); err == nil && n > 0 {
		limit = n
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if n, err := strconv.ParseInt(strings.TrimSpace(offsetRaw), 10, 64); err == nil && n > 0 {
		offset = n
	}
	return limit, offset
}
