// Package interpolate substitutes {{dotted.path}} tokens in strings with
// values looked up from a data object. Substitution is single-pass and flat:
// no escaping, no nesting, no conditionals.
package interpolate

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

var tokenPattern = regexp.MustCompile(`\{\{\s*([\w.-]+)\s*\}\}`)

// Interpolate replaces every token whose path resolves to a non-nil value.
// Tokens that do not resolve are left in the output exactly as written.
func Interpolate(template string, data any) string {
	if template == "" || !strings.Contains(template, "{{") {
		return template
	}
	return tokenPattern.ReplaceAllStringFunc(template, func(token string) string {
		m := tokenPattern.FindStringSubmatch(token)
		if len(m) < 2 {
			return token
		}
		v, ok := Lookup(data, m[1])
		if !ok || v == nil {
			return token
		}
		return Stringify(v)
	})
}

// Lookup resolves a dotted path against maps, structs (by JSON field name)
// and slices (by numeric segment). It never panics on missing segments.
func Lookup(data any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	cur := reflect.ValueOf(data)
	for _, seg := range strings.Split(path, ".") {
		next, ok := step(cur, seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	if !cur.IsValid() {
		return nil, false
	}
	cur = indirect(cur)
	if !cur.IsValid() {
		return nil, true
	}
	return cur.Interface(), true
}

func step(v reflect.Value, seg string) (reflect.Value, bool) {
	v = indirect(v)
	if !v.IsValid() {
		return reflect.Value{}, false
	}

	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return reflect.Value{}, false
		}
		out := v.MapIndex(reflect.ValueOf(seg).Convert(v.Type().Key()))
		if !out.IsValid() {
			return reflect.Value{}, false
		}
		return out, true

	case reflect.Slice, reflect.Array:
		idx, err := strconv.Atoi(seg)
		if err != nil || idx < 0 || idx >= v.Len() {
			return reflect.Value{}, false
		}
		return v.Index(idx), true

	case reflect.Struct:
		return structField(v, seg)
	}

	return reflect.Value{}, false
}

func structField(v reflect.Value, seg string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Name
		if tag, ok := f.Tag.Lookup("json"); ok {
			tagName, _, _ := strings.Cut(tag, ",")
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		if name == seg {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// indirect unwraps pointers and interfaces; a nil pointer yields an invalid Value
func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

// Stringify coerces a looked-up value to text. Whole floats print without a
// fractional part; maps, slices and structs print as JSON.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return formatFloat(x, 64)
	case float32:
		return formatFloat(float64(x), 32)
	case json.Number:
		return x.String()
	case fmt.Stringer:
		return x.String()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
	return fmt.Sprint(v)
}

func formatFloat(f float64, bits int) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, bits)
	}
	return strconv.FormatFloat(f, 'g', -1, bits)
}
