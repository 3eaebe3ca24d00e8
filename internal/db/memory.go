package db

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore is an in-process Store. It understands the subset of the
// query language the services emit: equality (with array containment),
// $regex/$options, $in, $nin, $ne, $exists, $gt/$gte/$lt/$lte, $or and $and.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]bson.M
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string][]bson.M{}}
}

func (s *MemoryStore) Find(_ context.Context, collection string, filter bson.M, opts FindOptions) ([]bson.M, error) {
	matched, err := s.snapshot(collection, filter)
	if err != nil {
		return nil, err
	}

	if len(opts.Sort) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			for _, e := range opts.Sort {
				c := compareValues(matched[i][e.Key], matched[j][e.Key])
				if c == 0 {
					continue
				}
				if direction(e.Value) < 0 {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}

	start := opts.Skip
	if start > int64(len(matched)) {
		start = int64(len(matched))
	}
	end := int64(len(matched))
	if opts.Limit > 0 && start+opts.Limit < end {
		end = start + opts.Limit
	}

	out := make([]bson.M, 0, end-start)
	return append(out, matched[start:end]...), nil
}

func (s *MemoryStore) Count(_ context.Context, collection string, filter bson.M) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched, err := s.match(collection, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(matched)), nil
}

func (s *MemoryStore) FindOne(_ context.Context, collection string, filter bson.M, out interface{}) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched, err := s.match(collection, filter)
	if err != nil {
		return err
	}
	if len(matched) == 0 {
		return ErrNotFound
	}
	raw, err := bson.Marshal(matched[0])
	if err != nil {
		return err
	}
	return bson.Unmarshal(raw, out)
}

func (s *MemoryStore) Insert(_ context.Context, collection string, doc interface{}) (bson.M, error) {
	m, err := withID(doc)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.data[collection] = append(s.data[collection], m)
	s.mu.Unlock()
	return ToDocument(m)
}

func (s *MemoryStore) InsertMany(ctx context.Context, collection string, docs []interface{}) ([]bson.M, error) {
	out := make([]bson.M, 0, len(docs))
	for _, d := range docs {
		m, err := s.Insert(ctx, collection, d)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *MemoryStore) Upsert(_ context.Context, collection string, filter, set, setOnInsert bson.M) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.data[collection]
	for i, d := range docs {
		ok, err := matchDoc(d, filter)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		for k, v := range set {
			d[k] = v
		}
		norm, err := ToDocument(d)
		if err != nil {
			return err
		}
		docs[i] = norm
		return nil
	}

	n := bson.M{}
	for k, v := range filter {
		if strings.HasPrefix(k, "$") {
			continue
		}
		if _, isOp := operatorMap(v); isOp {
			continue
		}
		n[k] = v
	}
	for k, v := range setOnInsert {
		n[k] = v
	}
	for k, v := range set {
		n[k] = v
	}
	m, err := withID(n)
	if err != nil {
		return err
	}
	s.data[collection] = append(docs, m)
	return nil
}

func (s *MemoryStore) Increment(_ context.Context, collection string, filter bson.M, field string, by int) (bson.M, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.data[collection] {
		ok, err := matchDoc(d, filter)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		switch cur := d[field].(type) {
		case float64:
			d[field] = cur + float64(by)
		default:
			n, _ := toFloat(cur)
			d[field] = int64(n) + int64(by)
		}
		return ToDocument(d)
	}
	return nil, ErrNotFound
}

// snapshot returns copies of the matching documents.
func (s *MemoryStore) snapshot(collection string, filter bson.M) ([]bson.M, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	live, err := s.match(collection, filter)
	if err != nil {
		return nil, err
	}
	out := make([]bson.M, 0, len(live))
	for _, d := range live {
		c, err := ToDocument(d)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// match must be called with the lock held; it returns the live documents.
func (s *MemoryStore) match(collection string, filter bson.M) ([]bson.M, error) {
	var out []bson.M
	for _, d := range s.data[collection] {
		ok, err := matchDoc(d, filter)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func matchDoc(doc bson.M, filter bson.M) (bool, error) {
	for k, cond := range filter {
		switch k {
		case "$or", "$and":
			subs, err := filterList(cond)
			if err != nil {
				return false, err
			}
			hit := k == "$and"
			for _, sub := range subs {
				ok, err := matchDoc(doc, sub)
				if err != nil {
					return false, err
				}
				if k == "$or" && ok {
					hit = true
					break
				}
				if k == "$and" && !ok {
					hit = false
					break
				}
			}
			if !hit {
				return false, nil
			}
		default:
			val, present := doc[k]
			ok, err := matchValue(val, present, cond)
			if err != nil || !ok {
				return false, err
			}
		}
	}
	return true, nil
}

func matchValue(val interface{}, present bool, cond interface{}) (bool, error) {
	if re, ok := cond.(primitive.Regex); ok {
		return matchRegex(val, re.Pattern, re.Options)
	}
	ops, isOp := operatorMap(cond)
	if !isOp {
		if cond == nil {
			return !present || val == nil, nil
		}
		return present && equalsOrContains(val, cond), nil
	}

	for op, arg := range ops {
		switch op {
		case "$options":
		case "$regex":
			opts, _ := ops["$options"].(string)
			pattern := fmt.Sprint(arg)
			if re, ok := arg.(primitive.Regex); ok {
				pattern, opts = re.Pattern, re.Options+opts
			}
			ok, err := matchRegex(val, pattern, opts)
			if err != nil || !ok {
				return false, err
			}
		case "$in", "$nin":
			items, err := anySlice(arg)
			if err != nil {
				return false, err
			}
			found := false
			for _, it := range items {
				if present && equalsOrContains(val, it) {
					found = true
					break
				}
			}
			if (op == "$in") != found {
				return false, nil
			}
		case "$ne":
			if present && equalsOrContains(val, arg) {
				return false, nil
			}
		case "$exists":
			want, _ := arg.(bool)
			if present != want {
				return false, nil
			}
		case "$gt", "$gte", "$lt", "$lte":
			if !present {
				return false, nil
			}
			c := compareValues(val, arg)
			switch {
			case op == "$gt" && c <= 0, op == "$gte" && c < 0, op == "$lt" && c >= 0, op == "$lte" && c > 0:
				return false, nil
			}
		default:
			return false, fmt.Errorf("memory store: unsupported operator %s", op)
		}
	}
	return true, nil
}

func matchRegex(val interface{}, pattern, options string) (bool, error) {
	if strings.Contains(options, "i") {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, fmt.Errorf("memory store: bad regex: %w", err)
	}
	if items, ok := sliceOf(val); ok {
		for _, it := range items {
			if s, ok := it.(string); ok && re.MatchString(s) {
				return true, nil
			}
		}
		return false, nil
	}
	s, ok := val.(string)
	return ok && re.MatchString(s), nil
}

func operatorMap(v interface{}) (map[string]interface{}, bool) {
	var m map[string]interface{}
	switch t := v.(type) {
	case bson.M:
		m = t
	case map[string]interface{}:
		m = t
	case bson.D:
		m = t.Map()
	default:
		return nil, false
	}
	if len(m) == 0 {
		return nil, false
	}
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return nil, false
		}
	}
	return m, true
}

func filterList(v interface{}) ([]bson.M, error) {
	items, err := anySlice(v)
	if err != nil {
		return nil, err
	}
	out := make([]bson.M, 0, len(items))
	for _, it := range items {
		switch f := it.(type) {
		case bson.M:
			out = append(out, f)
		case map[string]interface{}:
			out = append(out, f)
		default:
			return nil, fmt.Errorf("memory store: expected sub-filter, got %T", it)
		}
	}
	return out, nil
}

func anySlice(v interface{}) ([]interface{}, error) {
	if items, ok := sliceOf(v); ok {
		return items, nil
	}
	return nil, fmt.Errorf("memory store: expected array, got %T", v)
}

func sliceOf(v interface{}) ([]interface{}, bool) {
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]interface{}, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func equalsOrContains(val, target interface{}) bool {
	if items, ok := sliceOf(val); ok {
		if _, targetIsSlice := sliceOf(target); !targetIsSlice {
			for _, it := range items {
				if valuesEqual(it, target) {
					return true
				}
			}
			return false
		}
	}
	return valuesEqual(val, target)
}

func valuesEqual(a, b interface{}) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
	}
	return reflect.DeepEqual(a, b)
}

// compareValues orders values the way sorts need: missing/nil first, then
// numbers, strings, ObjectIDs, booleans.
func compareValues(a, b interface{}) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
	case primitive.ObjectID:
		if y, ok := b.(primitive.ObjectID); ok {
			return strings.Compare(x.Hex(), y.Hex())
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			}
			return 1
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case primitive.DateTime:
		return float64(n), true
	case time.Time:
		return float64(n.UnixMilli()), true
	}
	return 0, false
}

func direction(v interface{}) int {
	if f, ok := toFloat(v); ok && f < 0 {
		return -1
	}
	return 1
}
