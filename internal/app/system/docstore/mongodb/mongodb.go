// Package mongodb implements docstore.DB on MongoDB.
//
// Document ids are stored in _id. Batches run inside a multi-document
// transaction through system/txn, which falls back to sequential writes on
// standalone servers.
package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/mansiuk/internal/app/system/docstore"
	"github.com/dalemusser/mansiuk/internal/app/system/txn"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// DB wraps a Mongo database handle.
type DB struct {
	db  *mongo.Database
	log *zap.Logger
}

// New wraps db. Close disconnects the underlying client.
func New(db *mongo.Database, log *zap.Logger) *DB {
	return &DB{db: db, log: log}
}

func (d *DB) Get(ctx context.Context, coll, id string, dst any) error {
	err := d.db.Collection(coll).FindOne(ctx, bson.M{"_id": id}).Decode(dst)
	if err != nil {
		return translate(err)
	}
	docstore.SetID(dst, id)
	return nil
}

func (d *DB) Create(ctx context.Context, coll, id string, doc any) error {
	m, err := withID(doc, id)
	if err != nil {
		return err
	}
	_, err = d.db.Collection(coll).InsertOne(ctx, m)
	return translate(err)
}

func (d *DB) Set(ctx context.Context, coll, id string, doc any) error {
	return replace(ctx, d.db.Collection(coll), id, doc)
}

func (d *DB) Delete(ctx context.Context, coll, id string) error {
	res, err := d.db.Collection(coll).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(err)
	}
	if res.DeletedCount == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

func (d *DB) Query(ctx context.Context, coll string, q docstore.Query, dst any) error {
	if _, err := docstore.NewSink(dst); err != nil {
		return err
	}
	filter, err := buildFilter(q.Filters)
	if err != nil {
		return err
	}

	opts := options.Find()
	if q.OrderBy != "" {
		dir := 1
		if q.Desc {
			dir = -1
		}
		opts.SetSort(bson.D{{Key: q.OrderBy, Value: dir}})
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cur, err := d.db.Collection(coll).Find(ctx, filter, opts)
	if err != nil {
		return translate(err)
	}
	defer cur.Close(ctx)
	if err := cur.All(ctx, dst); err != nil {
		return translate(err)
	}
	return nil
}

func (d *DB) Batch() docstore.Batch { return &batch{d: d} }

func (d *DB) Ping(ctx context.Context) error {
	return translate(d.db.Client().Ping(ctx, readpref.Primary()))
}

func (d *DB) Close() error {
	return d.db.Client().Disconnect(context.Background())
}

type write struct {
	coll, id string
	doc      any
	del      bool
}

type batch struct {
	d      *DB
	writes []write
}

func (b *batch) Set(coll, id string, doc any) {
	b.writes = append(b.writes, write{coll: coll, id: id, doc: doc})
}

func (b *batch) Delete(coll, id string) {
	b.writes = append(b.writes, write{coll: coll, id: id, del: true})
}

func (b *batch) Len() int { return len(b.writes) }

func (b *batch) Commit(ctx context.Context) error {
	if len(b.writes) == 0 {
		return nil
	}
	err := txn.Run(ctx, b.d.db, b.d.log, func(ctx context.Context) error {
		for _, w := range b.writes {
			c := b.d.db.Collection(w.coll)
			if w.del {
				if _, err := c.DeleteOne(ctx, bson.M{"_id": w.id}); err != nil {
					return err
				}
				continue
			}
			if err := replace(ctx, c, w.id, w.doc); err != nil {
				return err
			}
		}
		return nil
	})
	return translate(err)
}

func replace(ctx context.Context, c *mongo.Collection, id string, doc any) error {
	m, err := withID(doc, id)
	if err != nil {
		return err
	}
	_, err = c.ReplaceOne(ctx, bson.M{"_id": id}, m, options.Replace().SetUpsert(true))
	return translate(err)
}

// withID marshals doc and forces its _id to id so the stored key never
// drifts from the document body.
func withID(doc any, id string) (bson.M, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document %s: %w", id, err)
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("encode document %s: %w", id, err)
	}
	m["_id"] = id
	return m, nil
}

var mongoOps = map[docstore.Op]string{
	docstore.Eq:  "$eq",
	docstore.In:  "$in",
	docstore.Gte: "$gte",
	docstore.Lte: "$lte",
}

func buildFilter(filters []docstore.Filter) (bson.M, error) {
	out := bson.M{}
	for _, f := range filters {
		op, ok := mongoOps[f.Op]
		if !ok {
			return nil, fmt.Errorf("mongodb: unsupported operator %q", f.Op)
		}
		cond, _ := out[f.Field].(bson.M)
		if cond == nil {
			cond = bson.M{}
			out[f.Field] = cond
		}
		cond[op] = f.Value
	}
	return out, nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return docstore.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", docstore.ErrAlreadyExists, err)
	case mongo.IsTimeout(err), mongo.IsNetworkError(err):
		return fmt.Errorf("%w: %v", docstore.ErrUnavailable, err)
	}
	return err
}
