// internal/app/system/docstore/query.go
package docstore

import (
	"fmt"
	"reflect"
)

// Op is a filter comparison operator. The values match Firestore's operator
// strings so the firestoredb backend passes them through unchanged.
type Op string

const (
	Eq  Op = "=="
	In  Op = "in"
	Gte Op = ">="
	Lte Op = "<="
)

// Filter restricts a query to documents whose top-level Field compares to
// Value with Op. For In, Value must be a slice.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Where builds a Filter.
func Where(field string, op Op, value any) Filter {
	return Filter{Field: field, Op: op, Value: value}
}

// Query is a conjunction of filters with optional ordering and limit.
// Limit <= 0 means no limit.
type Query struct {
	Filters []Filter
	OrderBy string
	Desc    bool
	Limit   int
}

// Sink appends decoded documents to a caller's slice.
type Sink struct {
	slice reflect.Value
	elem  reflect.Type
}

// NewSink validates that dst is a pointer to a slice of structs.
func NewSink(dst any) (*Sink, error) {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Slice {
		return nil, fmt.Errorf("docstore: query destination must be a pointer to a slice, got %T", dst)
	}
	elem := v.Elem().Type().Elem()
	if elem.Kind() != reflect.Struct {
		return nil, fmt.Errorf("docstore: query destination element must be a struct, got %s", elem)
	}
	return &Sink{slice: v.Elem(), elem: elem}, nil
}

// Append decodes one document through decode and appends it.
// decode receives a pointer to a fresh element.
func (s *Sink) Append(id string, decode func(ptr any) error) error {
	ptr := reflect.New(s.elem)
	if err := decode(ptr.Interface()); err != nil {
		return err
	}
	if setter, ok := ptr.Interface().(IDSetter); ok {
		setter.SetDocID(id)
	}
	s.slice.Set(reflect.Append(s.slice, ptr.Elem()))
	return nil
}

// SetID calls SetDocID on doc when it implements IDSetter.
func SetID(doc any, id string) {
	if setter, ok := doc.(IDSetter); ok {
		setter.SetDocID(id)
	}
}
