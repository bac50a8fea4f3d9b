// internal/app/system/docstore/memdb/filter.go
package memdb

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/dalemusser/mansiuk/internal/app/system/docstore"
)

var timeType = reflect.TypeOf(time.Time{})

func matches(doc reflect.Value, filters []docstore.Filter) (bool, error) {
	for _, f := range filters {
		field, ok := fieldByTag(doc, f.Field)
		if !ok {
			return false, nil
		}
		want := reflect.ValueOf(f.Value)

		switch f.Op {
		case docstore.Eq:
			if c, ok := compare(field, want); !ok || c != 0 {
				return false, nil
			}
		case docstore.Gte:
			if c, ok := compare(field, want); !ok || c < 0 {
				return false, nil
			}
		case docstore.Lte:
			if c, ok := compare(field, want); !ok || c > 0 {
				return false, nil
			}
		case docstore.In:
			if want.Kind() != reflect.Slice {
				return false, fmt.Errorf("memdb: %q filter on %s needs a slice, got %T", f.Op, f.Field, f.Value)
			}
			found := false
			for i := 0; i < want.Len(); i++ {
				if c, ok := compare(field, want.Index(i)); ok && c == 0 {
					found = true
					break
				}
			}
			if !found {
				return false, nil
			}
		default:
			return false, fmt.Errorf("memdb: unsupported operator %q", f.Op)
		}
	}
	return true, nil
}

// fieldByTag finds the top-level field persisted under name. Nil pointers
// count as absent, matching Firestore's treatment of missing fields.
func fieldByTag(doc reflect.Value, name string) (reflect.Value, bool) {
	t := doc.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag := sf.Tag.Get("firestore")
		tagName, _, _ := strings.Cut(tag, ",")
		if tagName == "-" {
			continue
		}
		if tagName == "" {
			tagName = sf.Name
		}
		if tagName != name {
			continue
		}
		v := doc.Field(i)
		for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
			if v.IsNil() {
				return reflect.Value{}, false
			}
			v = v.Elem()
		}
		return v, true
	}
	return reflect.Value{}, false
}

// compare orders a against b. ok is false when the values are of kinds that
// cannot be compared; an invalid a (missing field) sorts first.
func compare(a, b reflect.Value) (c int, ok bool) {
	if !a.IsValid() || !b.IsValid() {
		switch {
		case !a.IsValid() && !b.IsValid():
			return 0, false
		case !a.IsValid():
			return -1, false
		default:
			return 1, false
		}
	}
	for b.Kind() == reflect.Pointer || b.Kind() == reflect.Interface {
		if b.IsNil() {
			return 1, false
		}
		b = b.Elem()
	}

	if a.Type() == timeType && b.Type() == timeType {
		at := a.Interface().(time.Time)
		bt := b.Interface().(time.Time)
		return at.Compare(bt), true
	}

	switch {
	case a.Kind() == reflect.String && b.Kind() == reflect.String:
		return strings.Compare(a.String(), b.String()), true
	case a.Kind() == reflect.Bool && b.Kind() == reflect.Bool:
		switch {
		case a.Bool() == b.Bool():
			return 0, true
		case !a.Bool():
			return -1, true
		default:
			return 1, true
		}
	case isNumber(a) && isNumber(b):
		af, bf := toFloat(a), toFloat(b)
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}
	return 0, false
}

func isNumber(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func toFloat(v reflect.Value) float64 {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	default:
		return v.Float()
	}
}
