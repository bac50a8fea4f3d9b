// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup when the Mongo backend is selected. Each
collection's index set is reconciled idempotently and problems are
aggregated so startup can fail fast with everything visible at once.

The Firestore backend declares its composite indexes in
firestore.indexes.json instead (see package firestoredb).
*/
func EnsureAll(ctx context.Context, db *mongo.Database, log *zap.Logger) error {
	var problems []string

	for _, coll := range []string{"requests", "applications", "users", "activity_logs"} {
		if err := ensureIndexSet(ctx, db.Collection(coll), Desired(coll), log); err != nil {
			problems = append(problems, coll+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// Desired returns the index models a collection should carry.
func Desired(coll string) []mongo.IndexModel {
	switch coll {
	case "requests":
		return []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "isMerged", Value: 1}, {Key: "createdAt", Value: -1}},
				Options: options.Index().SetName("idx_requests_merged_created"),
			},
			{
				Keys:    bson.D{{Key: "isMerged", Value: 1}, {Key: "status", Value: 1}, {Key: "createdAt", Value: -1}},
				Options: options.Index().SetName("idx_requests_merged_status_created"),
			},
		}
	case "applications":
		return []mongo.IndexModel{
			{
				// One application per volunteer per request.
				Keys:    bson.D{{Key: "requestId", Value: 1}, {Key: "volunteerId", Value: 1}},
				Options: options.Index().SetName("uniq_applications_request_volunteer").SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "volunteerId", Value: 1}, {Key: "createdAt", Value: -1}},
				Options: options.Index().SetName("idx_applications_volunteer_created"),
			},
			{
				Keys:    bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}},
				Options: options.Index().SetName("idx_applications_status_created"),
			},
		}
	case "users":
		return []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "role", Value: 1}, {Key: "createdAt", Value: -1}},
				Options: options.Index().SetName("idx_users_role_created"),
			},
			{
				Keys:    bson.D{{Key: "role", Value: 1}, {Key: "status", Value: 1}},
				Options: options.Index().SetName("idx_users_role_status"),
			},
		}
	case "activity_logs":
		return []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "createdAt", Value: -1}},
				Options: options.Index().SetName("idx_activity_created"),
			},
			{
				Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
				Options: options.Index().SetName("idx_activity_user_created"),
			},
			{
				Keys:    bson.D{{Key: "action", Value: 1}, {Key: "createdAt", Value: -1}},
				Options: options.Index().SetName("idx_activity_action_created"),
			},
		}
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	av := false
	bv := false
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	return av == bv
}

// Mongo/DocDB sometimes returns IndexOptionsConflict when an index with the
// same keys already exists under a different name (or options differ).
func isOptionsConflictErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "IndexOptionsConflict")
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel, log *zap.Logger) error {
	existing := map[string]existingIndex{} // sig -> index
	cur, err := coll.Indexes().List(ctx)
	if err == nil {
		defer cur.Close(ctx)
		for cur.Next(ctx) {
			var idx existingIndex
			if err := cur.Decode(&idx); err != nil {
				log.Warn("failed to decode existing index",
					zap.String("collection", coll.Name()),
					zap.Error(err))
				continue
			}
			existing[keySig(idx.Key)] = idx
		}
	}

	var errs []string
	for _, m := range models {
		desiredName := ""
		var desiredUnique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			desiredUnique = m.Options.Unique
		}
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()

		if ex, ok := existing[sig]; ok {
			if sameBoolPtr(desiredUnique, ex.Unique) {
				log.Debug("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("keys", sig))
				continue
			}
			// Options changed (e.g. now unique): drop and recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), desiredName, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if isOptionsConflictErr(err) {
				log.Warn("index options conflict; leaving existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", desiredName),
					zap.Error(err))
				continue
			}
			errs = append(errs, fmt.Sprintf("%s(%s): create failed: %v", coll.Name(), desiredName, err))
			continue
		}
		log.Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", sig),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
