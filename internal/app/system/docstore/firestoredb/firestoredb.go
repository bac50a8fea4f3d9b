// Package firestoredb implements docstore.DB on Cloud Firestore.
//
// Composite indexes needed by the stores (deploy with firestore.indexes.json):
//   - requests: isMerged ASC, createdAt DESC
//   - requests: isMerged ASC, status ASC, createdAt DESC
//   - applications: requestId ASC, createdAt DESC
//   - applications: volunteerId ASC, createdAt DESC
//   - applications: status ASC, createdAt DESC
//   - users: role ASC, createdAt DESC
//   - users: role ASC, status ASC, createdAt DESC
//   - activity_logs: userId ASC, createdAt DESC
//   - activity_logs: action ASC, createdAt DESC
//   - activity_logs: targetType ASC, targetId ASC, createdAt DESC
package firestoredb

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/dalemusser/mansiuk/internal/app/system/docstore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// DB wraps a Firestore client.
type DB struct {
	client *firestore.Client
}

// New wraps client. The DB takes ownership; Close closes the client.
func New(client *firestore.Client) *DB {
	return &DB{client: client}
}

func (d *DB) Get(ctx context.Context, coll, id string, dst any) error {
	snap, err := d.client.Collection(coll).Doc(id).Get(ctx)
	if err != nil {
		return translate(err)
	}
	if err := snap.DataTo(dst); err != nil {
		return fmt.Errorf("decode %s/%s: %w", coll, id, err)
	}
	docstore.SetID(dst, id)
	return nil
}

func (d *DB) Create(ctx context.Context, coll, id string, doc any) error {
	_, err := d.client.Collection(coll).Doc(id).Create(ctx, doc)
	return translate(err)
}

func (d *DB) Set(ctx context.Context, coll, id string, doc any) error {
	_, err := d.client.Collection(coll).Doc(id).Set(ctx, doc)
	return translate(err)
}

func (d *DB) Delete(ctx context.Context, coll, id string) error {
	_, err := d.client.Collection(coll).Doc(id).Delete(ctx, firestore.Exists)
	return translate(err)
}

func (d *DB) Query(ctx context.Context, coll string, q docstore.Query, dst any) error {
	sink, err := docstore.NewSink(dst)
	if err != nil {
		return err
	}

	fq := d.client.Collection(coll).Query
	for _, f := range q.Filters {
		fq = fq.Where(f.Field, string(f.Op), f.Value)
	}
	if q.OrderBy != "" {
		dir := firestore.Asc
		if q.Desc {
			dir = firestore.Desc
		}
		fq = fq.OrderBy(q.OrderBy, dir)
	}
	if q.Limit > 0 {
		fq = fq.Limit(q.Limit)
	}

	snaps, err := fq.Documents(ctx).GetAll()
	if err != nil {
		return translate(err)
	}
	for _, snap := range snaps {
		if err := sink.Append(snap.Ref.ID, snap.DataTo); err != nil {
			return fmt.Errorf("decode %s/%s: %w", coll, snap.Ref.ID, err)
		}
	}
	return nil
}

func (d *DB) Batch() docstore.Batch { return &batch{client: d.client} }

// Ping reads a sentinel document; a missing document still proves the
// backend answered.
func (d *DB) Ping(ctx context.Context) error {
	_, err := d.client.Collection("_health").Doc("ping").Get(ctx)
	if err != nil && status.Code(err) != codes.NotFound {
		return err
	}
	return nil
}

func (d *DB) Close() error { return d.client.Close() }

type write struct {
	coll, id string
	doc      any
	del      bool
}

type batch struct {
	client *firestore.Client
	writes []write
}

func (b *batch) Set(coll, id string, doc any) {
	b.writes = append(b.writes, write{coll: coll, id: id, doc: doc})
}

func (b *batch) Delete(coll, id string) {
	b.writes = append(b.writes, write{coll: coll, id: id, del: true})
}

func (b *batch) Len() int { return len(b.writes) }

// Commit runs the staged writes in one Firestore transaction.
func (b *batch) Commit(ctx context.Context) error {
	if len(b.writes) == 0 {
		return nil
	}
	err := b.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, w := range b.writes {
			ref := b.client.Collection(w.coll).Doc(w.id)
			var err error
			if w.del {
				err = tx.Delete(ref)
			} else {
				err = tx.Set(ref, w.doc)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	return translate(err)
}

// translate maps gRPC status codes onto docstore sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%w: %v", docstore.ErrNotFound, err)
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %v", docstore.ErrAlreadyExists, err)
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted:
		return fmt.Errorf("%w: %v", docstore.ErrUnavailable, err)
	}
	return err
}
