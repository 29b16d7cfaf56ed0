package parse

import (
	"encoding/json"
	"sort"
	"strconv"
)

// Doc is a generically decoded JSON value. Every accessor tolerates a
// missing or mistyped value and returns the zero value instead, so a shape
// change in a tool's output yields empty results rather than an error.
type Doc struct {
	v any
}

// JSON decodes data. Invalid input yields an empty Doc.
func JSON(data string) Doc {
	var v any
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return Doc{}
	}
	return Doc{v: v}
}

// Exists reports whether the value is present and not null.
func (d Doc) Exists() bool { return d.v != nil }

// Get returns the member key of an object.
func (d Doc) Get(key string) Doc {
	if m, ok := d.v.(map[string]any); ok {
		return Doc{v: m[key]}
	}
	return Doc{}
}

// Path follows a sequence of object keys.
func (d Doc) Path(keys ...string) Doc {
	for _, k := range keys {
		d = d.Get(k)
	}
	return d
}

// First returns the first of keys that is present.
func (d Doc) First(keys ...string) Doc {
	for _, k := range keys {
		if v := d.Get(k); v.Exists() {
			return v
		}
	}
	return Doc{}
}

// Array returns the elements of an array.
func (d Doc) Array() []Doc {
	arr, ok := d.v.([]any)
	if !ok {
		return nil
	}
	out := make([]Doc, len(arr))
	for i, v := range arr {
		out[i] = Doc{v: v}
	}
	return out
}

// Keys returns the member names of an object, sorted.
func (d Doc) Keys() []string {
	m, ok := d.v.(map[string]any)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String returns a string value, or a number formatted as text.
func (d Doc) String() string {
	switch v := d.v.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

// Int returns a numeric value, parsing numeric strings.
func (d Doc) Int() int64 {
	switch v := d.v.(type) {
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64) //nolint:errcheck
		return n
	}
	return 0
}

// Float returns a numeric value.
func (d Doc) Float() float64 {
	switch v := d.v.(type) {
	case float64:
		return v
	case string:
		f, _ := strconv.ParseFloat(v, 64) //nolint:errcheck
		return f
	}
	return 0
}

// Bool returns a boolean value.
func (d Doc) Bool() bool {
	b, _ := d.v.(bool)
	return b
}

// Strings returns the string elements of an array, skipping others.
func (d Doc) Strings() []string {
	var out []string
	for _, e := range d.Array() {
		if s, ok := e.v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
