// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/mansiuk/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Collections lists the collections the app writes, in creation order.
var Collections = []string{"requests", "applications", "users", "activity_logs"}

// EnsureAll creates the collections (if missing) and attaches JSON-Schema
// validators. Servers that do not support collMod validators (some
// DocumentDB versions) are logged and skipped.
func EnsureAll(ctx context.Context, db *mongo.Database, log *zap.Logger) error {
	var problems []string

	existing, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		log.Warn("listCollectionNames failed; creating blindly", zap.Error(err))
	}

	for _, coll := range Collections {
		if err := ensureCollection(ctx, db, coll, existing, log); err != nil {
			problems = append(problems, coll+": "+err.Error())
			continue
		}
		schema := Schema(coll)
		if schema == nil {
			continue
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isUnsupported(err) {
				log.Info("validator skipped (unsupported)", zap.String("collection", coll))
				continue
			}
			problems = append(problems, coll+": "+err.Error())
			continue
		}
		log.Info("validator ensured", zap.String("collection", coll))
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, existing []string, log *zap.Logger) error {
	for _, n := range existing {
		if n == name {
			return nil
		}
	}
	if err := db.CreateCollection(ctx, name); err != nil {
		// Another instance may have won the race.
		if commandErrorIs(err, []int32{48}, "already exists", "namespace exists") {
			return nil
		}
		log.Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return err
	}
	log.Info("created collection", zap.String("collection", name))
	return nil
}

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	return db.RunCommand(ctx, cmd).Decode(&out)
}

func isUnsupported(err error) bool {
	return commandErrorIs(err, []int32{59, 115}, "no such command", "not implemented", "not supported")
}

// commandErrorIs matches a server command error by code, or any error by
// message fragment.
func commandErrorIs(err error, codes []int32, phrases ...string) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		for _, c := range codes {
			if ce.Code == c {
				return true
			}
		}
	}
	msg := strings.ToLower(err.Error())
	for _, p := range phrases {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

/* ------------------------- JSON-Schema docs ---------------------- */

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

// Schema returns the $jsonSchema validator for coll, or nil.
func Schema(coll string) bson.M {
	switch coll {
	case "requests":
		return requestsSchema()
	case "applications":
		return applicationsSchema()
	case "users":
		return usersSchema()
	case "activity_logs":
		return activityLogsSchema()
	}
	return nil
}

func requestsSchema() bson.M {
	statuses := bson.A{}
	for _, s := range models.RequestStatuses {
		statuses = append(statuses, string(s))
	}
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"requester", "description", "fields", "status", "isMerged", "createdAt"},
			"properties": bson.M{
				"requester": bson.M{
					"bsonType": "object",
					"required": bson.A{"name", "phone"},
					"properties": bson.M{
						"name":  nonBlank,
						"phone": nonBlank,
					},
				},
				"description": nonBlank,
				"fields": bson.M{
					"bsonType": "array",
					"items":    bson.M{"enum": serviceFields()},
				},
				"urgency":              bson.M{"enum": bson.A{models.UrgencyUrgent, models.UrgencyNormal}},
				"status":               bson.M{"enum": statuses},
				"isMerged":             bson.M{"bsonType": "bool"},
				"mergedWith":           bson.M{"bsonType": "array", "items": bson.M{"bsonType": "string"}},
				"assignedVolunteerIds": bson.M{"bsonType": "array", "items": bson.M{"bsonType": "string"}},
				"matchedAt":            bson.M{"bsonType": "date"},
				"completedAt":          bson.M{"bsonType": "date"},
				"createdAt":            bson.M{"bsonType": "date"},
				"updatedAt":            bson.M{"bsonType": "date"},
			},
		},
	}
}

func applicationsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"requestId", "volunteerId", "status", "createdAt"},
			"properties": bson.M{
				"requestId":   nonBlank,
				"volunteerId": nonBlank,
				"status": bson.M{"enum": bson.A{
					string(models.ApplicationPending),
					string(models.ApplicationApproved),
					string(models.ApplicationRejected),
					string(models.ApplicationCompleted),
				}},
				"matchedAt":   bson.M{"bsonType": "date"},
				"completedAt": bson.M{"bsonType": "date"},
				"createdAt":   bson.M{"bsonType": "date"},
			},
		},
	}
}

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"role", "status"},
			"properties": bson.M{
				"role": bson.M{"enum": bson.A{string(models.RoleAdmin), string(models.RoleVolunteer)}},
				"status": bson.M{"enum": bson.A{
					string(models.UserPending),
					string(models.UserApproved),
					string(models.UserRejected),
					string(models.UserSuspended),
				}},
				"email":          bson.M{"bsonType": "string"},
				"completedTasks": bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
				"interviewDate":  bson.M{"bsonType": "date"},
			},
		},
	}
}

func activityLogsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"userId", "action", "targetType", "targetId", "createdAt"},
			"properties": bson.M{
				"userId": bson.M{"bsonType": "string"},
				"action": nonBlank,
				"targetType": bson.M{"enum": bson.A{
					models.TargetUser, models.TargetRequest, models.TargetApplication, models.TargetSystem,
				}},
				"targetId":  bson.M{"bsonType": "string"},
				"createdAt": bson.M{"bsonType": "date"},
			},
		},
	}
}

func serviceFields() bson.A {
	return bson.A{
		string(models.FieldDailyHelper),
		string(models.FieldCommunityPartner),
		string(models.FieldNeighbourhoodEar),
	}
}
