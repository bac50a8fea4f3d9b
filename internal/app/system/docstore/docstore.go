// Package docstore is the document-database boundary the stores are written
// against.
//
// A DB holds named collections of documents keyed by string ids. Documents are
// Go structs whose persisted field names come from their `firestore` and
// `bson` tags (the models keep both identical). Backends:
//
//   - memdb: in-process maps, used by tests and the "memory" backend
//   - firestoredb: Cloud Firestore through the Firebase Admin SDK
//   - mongodb: MongoDB through the official driver
//
// Writes that must land together go through a Batch, which every backend
// commits atomically (Firestore transaction, Mongo multi-document
// transaction, a single lock in memdb).
package docstore

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a document id does not resolve.
	ErrNotFound = errors.New("docstore: document not found")

	// ErrAlreadyExists is returned by Create when the id is taken.
	ErrAlreadyExists = errors.New("docstore: document already exists")

	// ErrUnavailable marks transient backend failures (timeouts, outages)
	// that a caller may retry.
	ErrUnavailable = errors.New("docstore: backend unavailable")
)

// DB is a document database.
type DB interface {
	// Get decodes the document coll/id into dst (a struct pointer).
	Get(ctx context.Context, coll, id string, dst any) error

	// Create writes doc under id and fails with ErrAlreadyExists if the id is taken.
	Create(ctx context.Context, coll, id string, doc any) error

	// Set writes doc under id, replacing any existing document.
	Set(ctx context.Context, coll, id string, doc any) error

	// Delete removes coll/id and fails with ErrNotFound if it does not exist.
	Delete(ctx context.Context, coll, id string) error

	// Query runs q against coll and appends the results to dst, which must
	// be a pointer to a slice of structs.
	Query(ctx context.Context, coll string, q Query, dst any) error

	// Batch starts a group of writes that commit atomically.
	Batch() Batch

	// Ping checks connectivity.
	Ping(ctx context.Context) error

	// Close releases the backend's resources.
	Close() error
}

// Batch collects writes and commits them as one atomic unit.
// A Batch is not safe for concurrent use and must not be reused after Commit.
type Batch interface {
	Set(coll, id string, doc any)
	Delete(coll, id string)

	// Len reports how many writes are staged.
	Len() int

	Commit(ctx context.Context) error
}

// IDSetter is implemented by documents whose id is not part of the stored
// body. Backends call SetDocID after decoding.
type IDSetter interface {
	SetDocID(id string)
}
