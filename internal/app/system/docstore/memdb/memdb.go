// Package memdb is an in-process docstore.DB.
//
// Documents are deep-copied on every write and read, so callers never share
// memory with the store. Filters and ordering read struct fields by their
// `firestore` tag names, which keeps query behaviour aligned with the
// firestoredb backend.
package memdb

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/dalemusser/mansiuk/internal/app/system/docstore"
)

// DB is a docstore.DB held in memory. The zero value is not usable; call New.
type DB struct {
	mu    sync.RWMutex
	colls map[string]map[string]reflect.Value
	fail  map[string]error
}

// New returns an empty DB.
func New() *DB {
	return &DB{
		colls: make(map[string]map[string]reflect.Value),
		fail:  make(map[string]error),
	}
}

// FailWrites makes every write to coll fail with err until cleared with a
// nil err. Tests use it to simulate a storage outage.
func (d *DB) FailWrites(coll string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		delete(d.fail, coll)
		return
	}
	d.fail[coll] = err
}

// Count returns the number of documents in coll.
func (d *DB) Count(coll string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.colls[coll])
}

func (d *DB) Get(ctx context.Context, coll, id string, dst any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	v, ok := d.colls[coll][id]
	if !ok {
		return docstore.ErrNotFound
	}
	if err := assign(dst, v); err != nil {
		return err
	}
	docstore.SetID(dst, id)
	return nil
}

func (d *DB) Create(ctx context.Context, coll, id string, doc any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v, err := snapshot(doc)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail[coll]; err != nil {
		return err
	}
	if _, exists := d.colls[coll][id]; exists {
		return docstore.ErrAlreadyExists
	}
	d.put(coll, id, v)
	return nil
}

func (d *DB) Set(ctx context.Context, coll, id string, doc any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v, err := snapshot(doc)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail[coll]; err != nil {
		return err
	}
	d.put(coll, id, v)
	return nil
}

func (d *DB) Delete(ctx context.Context, coll, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.fail[coll]; err != nil {
		return err
	}
	if _, ok := d.colls[coll][id]; !ok {
		return docstore.ErrNotFound
	}
	delete(d.colls[coll], id)
	return nil
}

func (d *DB) Query(ctx context.Context, coll string, q docstore.Query, dst any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sink, err := docstore.NewSink(dst)
	if err != nil {
		return err
	}

	d.mu.RLock()
	type hit struct {
		id string
		v  reflect.Value
	}
	var hits []hit
	for id, v := range d.colls[coll] {
		ok, err := matches(v, q.Filters)
		if err != nil {
			d.mu.RUnlock()
			return err
		}
		if ok {
			hits = append(hits, hit{id: id, v: v})
		}
	}
	d.mu.RUnlock()

	// Map iteration is random; sort by id first so ties under OrderBy are stable.
	sort.Slice(hits, func(i, j int) bool { return hits[i].id < hits[j].id })
	if q.OrderBy != "" {
		sort.SliceStable(hits, func(i, j int) bool {
			a, _ := fieldByTag(hits[i].v, q.OrderBy)
			b, _ := fieldByTag(hits[j].v, q.OrderBy)
			c, _ := compare(a, b)
			if q.Desc {
				return c > 0
			}
			return c < 0
		})
	}
	if q.Limit > 0 && len(hits) > q.Limit {
		hits = hits[:q.Limit]
	}

	for _, h := range hits {
		v := h.v
		if err := sink.Append(h.id, func(ptr any) error { return assign(ptr, v) }); err != nil {
			return err
		}
	}
	return nil
}

func (d *DB) Batch() docstore.Batch { return &batch{db: d} }

func (d *DB) Ping(ctx context.Context) error { return ctx.Err() }

func (d *DB) Close() error { return nil }

func (d *DB) put(coll, id string, v reflect.Value) {
	c, ok := d.colls[coll]
	if !ok {
		c = make(map[string]reflect.Value)
		d.colls[coll] = c
	}
	c[id] = v
}

type write struct {
	coll, id string
	doc      any
	del      bool
}

type batch struct {
	db     *DB
	writes []write
}

func (b *batch) Set(coll, id string, doc any) {
	b.writes = append(b.writes, write{coll: coll, id: id, doc: doc})
}

func (b *batch) Delete(coll, id string) {
	b.writes = append(b.writes, write{coll: coll, id: id, del: true})
}

func (b *batch) Len() int { return len(b.writes) }

// Commit applies every staged write under one lock, or none of them.
func (b *batch) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	snaps := make([]reflect.Value, len(b.writes))
	for i, w := range b.writes {
		if w.del {
			continue
		}
		v, err := snapshot(w.doc)
		if err != nil {
			return err
		}
		snaps[i] = v
	}

	d := b.db
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, w := range b.writes {
		if err := d.fail[w.coll]; err != nil {
			return err
		}
	}
	for i, w := range b.writes {
		if w.del {
			delete(d.colls[w.coll], w.id)
			continue
		}
		d.put(w.coll, w.id, snaps[i])
	}
	return nil
}

// snapshot returns a deep copy of the struct doc (or *struct).
func snapshot(doc any) (reflect.Value, error) {
	v := reflect.ValueOf(doc)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, fmt.Errorf("memdb: nil document")
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("memdb: document must be a struct, got %T", doc)
	}
	return clone(v), nil
}

// assign deep-copies the stored value into the struct pointer dst.
func assign(dst any, v reflect.Value) error {
	out := reflect.ValueOf(dst)
	if out.Kind() != reflect.Pointer || out.IsNil() {
		return fmt.Errorf("memdb: destination must be a non-nil pointer, got %T", dst)
	}
	if !v.Type().AssignableTo(out.Elem().Type()) {
		return fmt.Errorf("memdb: cannot decode %s into %s", v.Type(), out.Elem().Type())
	}
	out.Elem().Set(clone(v))
	return nil
}

func clone(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		p := reflect.New(v.Type().Elem())
		p.Elem().Set(clone(v.Elem()))
		return p
	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		s := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			s.Index(i).Set(clone(v.Index(i)))
		}
		return s
	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		m := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			m.SetMapIndex(iter.Key(), clone(iter.Value()))
		}
		return m
	case reflect.Interface:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(clone(v.Elem()))
		return out
	case reflect.Struct:
		out := reflect.New(v.Type()).Elem()
		out.Set(v)
		for i := 0; i < v.NumField(); i++ {
			if f := out.Field(i); f.CanSet() {
				f.Set(clone(v.Field(i)))
			}
		}
		return out
	default:
		return v
	}
}
