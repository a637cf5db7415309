package docstore

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bytedance/sonic"
)

// Encode converts a json-tagged struct into Fields.
func Encode(v any) (Fields, error) {
	raw, err := sonic.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	out := make(Fields)
	if err := sonic.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return out, nil
}

// Decode fills a json-tagged struct from Fields.
func Decode(fields Fields, dst any) error {
	raw, err := sonic.Marshal(fields)
	if err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	if err := sonic.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

// Normalize round-trips fields through JSON so every backend stores the same
// shapes: numbers become float64, slices become []any, structs become maps.
func Normalize(fields Fields) (Fields, error) {
	if fields == nil {
		return Fields{}, nil
	}
	return Encode(fields)
}

func normalizeValue(v any) (any, error) {
	wrapped, err := Encode(map[string]any{"v": v})
	if err != nil {
		return nil, err
	}
	return wrapped["v"], nil
}

// ApplyPatch merges patch into fields in place. Keys are dotted paths.
// Keys are applied in sorted order so "a" is written before "a.b".
func ApplyPatch(fields Fields, patch Fields) error {
	keys := make([]string, 0, len(patch))
	for k := range patch {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		segments, err := splitPath(key)
		if err != nil {
			return err
		}
		value, err := normalizeValue(patch[key])
		if err != nil {
			return err
		}

		node := fields
		for _, seg := range segments[:len(segments)-1] {
			child, ok := node[seg].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[seg] = child
			}
			node = child
		}
		node[segments[len(segments)-1]] = value
	}
	return nil
}

// Lookup resolves a dotted path inside fields.
func Lookup(fields Fields, path string) (any, bool) {
	segments, err := splitPath(path)
	if err != nil {
		return nil, false
	}
	var cur any = fields
	for _, seg := range segments {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Matches reports whether fields satisfy every filter.
func Matches(fields Fields, filters []Filter) (bool, error) {
	for _, f := range filters {
		got, ok := Lookup(fields, f.Field)
		switch f.Op {
		case OpEquals:
			want, err := normalizeValue(f.Value)
			if err != nil {
				return false, err
			}
			if !ok || !scalarEqual(got, want) {
				return false, nil
			}
		case OpPrefix:
			prefix, isString := f.Value.(string)
			if !isString {
				return false, fmt.Errorf("prefix filter on %q requires a string value", f.Field)
			}
			s, isString := got.(string)
			if !ok || !isString || !strings.HasPrefix(s, prefix) {
				return false, nil
			}
		default:
			return false, fmt.Errorf("unsupported operator %q", f.Op)
		}
	}
	return true, nil
}

func scalarEqual(a, b any) bool {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case nil:
		return b == nil
	default:
		return false
	}
}

// Clone deep-copies a normalized field map.
func Clone(fields Fields) Fields {
	if fields == nil {
		return nil
	}
	out := make(Fields, len(fields))
	for k, v := range fields {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		return Clone(tv)
	case []any:
		out := make([]any, len(tv))
		for i := range tv {
			out[i] = cloneValue(tv[i])
		}
		return out
	default:
		return v
	}
}

// PathSegment joins a prefix and a key into a dotted path. The key must be
// a single segment.
func PathSegment(prefix, key string) (string, error) {
	if err := ValidateSegment(key); err != nil {
		return "", err
	}
	return prefix + "." + key, nil
}

// ValidateSegment rejects values that cannot be used as one path segment.
func ValidateSegment(key string) error {
	if strings.TrimSpace(key) == "" || strings.Contains(key, ".") {
		return fmt.Errorf("%w: segment %q", ErrInvalidPath, key)
	}
	return nil
}

func splitPath(path string) ([]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidPath)
	}
	segments := strings.Split(path, ".")
	for _, seg := range segments {
		if seg == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}
	return segments, nil
}
