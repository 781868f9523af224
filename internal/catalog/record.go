package catalog

import "strconv"

// Record is one upstream document. It stays a plain map so fields the
// upstream adds later survive the mirror round-trip without a code change.
type Record map[string]any

// Int64 reads a numeric field, coercing every representation that shows up in
// practice: float64 from JSON decoding, int32/int64 from BSON decoding.
func (r Record) Int64(key string) (int64, bool) {
	return asInt64(r[key])
}

// ID returns the record's upstream identifier.
func (r Record) ID() (int64, bool) {
	return r.Int64("id")
}

// String reads a string field; missing or non-string values yield "".
func (r Record) String(key string) string {
	s, _ := r[key].(string)
	return s
}

// Status returns the record's status field, "" when absent.
func (r Record) Status() string {
	return r.String("status")
}

// Sub returns a nested object field, or nil when absent or not an object.
func (r Record) Sub(key string) Record {
	return asRecord(r[key])
}

// Slice returns the nested objects of an array field. Non-object elements
// are dropped.
func (r Record) Slice(key string) []Record {
	items, ok := asSlice(r[key])
	if !ok {
		return nil
	}
	out := make([]Record, 0, len(items))
	for _, item := range items {
		if rec := asRecord(item); rec != nil {
			out = append(out, rec)
		}
	}
	return out
}

// Clone returns a shallow copy. Upserts stamp modified_at on the copy so the
// caller's record is never mutated.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Project returns a copy holding only the given keys, skipping absent ones.
func (r Record) Project(keys ...string) Record {
	out := make(Record, len(keys))
	for _, k := range keys {
		if v, ok := r[k]; ok {
			out[k] = v
		}
	}
	return out
}

// MatchesFilter reports whether every filter entry equals the corresponding
// top-level field. Numeric-looking filter values compare numerically so that
// "5" matches an id stored as float64 or int64.
func (r Record) MatchesFilter(filter map[string]string) bool {
	for key, want := range filter {
		v, ok := r[key]
		if !ok {
			return false
		}
		if s, ok := v.(string); ok && s == want {
			continue
		}
		if n, ok := asInt64(v); ok {
			if wn, err := strconv.ParseInt(want, 10, 64); err == nil && wn == n {
				continue
			}
		}
		return false
	}
	return true
}

// DedupeByID merges batches into one slice keyed by id, later batches winning
// on collision. Records without an id are dropped. First-seen order is kept
// so the result is deterministic.
func DedupeByID(batches ...[]Record) []Record {
	seen := make(map[int64]int)
	var out []Record
	for _, batch := range batches {
		for _, rec := range batch {
			id, ok := rec.ID()
			if !ok {
				continue
			}
			if at, dup := seen[id]; dup {
				out[at] = rec
				continue
			}
			seen[id] = len(out)
			out = append(out, rec)
		}
	}
	return out
}

// ParseID coerces a client-provided path parameter into the numeric id type
// used everywhere else. Upstream ids are numbers; URL parameters are strings.
func ParseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	case float32:
		return int64(n), true
	}
	return 0, false
}

func asRecord(v any) Record {
	switch m := v.(type) {
	case Record:
		return m
	case map[string]any:
		return Record(m)
	}
	return nil
}

func asSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []Record:
		out := make([]any, len(s))
		for i, item := range s {
			out[i] = item
		}
		return out, true
	}
	return nil, false
}
