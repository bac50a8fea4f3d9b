// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"encoding/base64"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"github.com/dalemusser/mansiuk/internal/app/system/auth"
	"github.com/dalemusser/mansiuk/internal/app/system/docstore/firestoredb"
	"github.com/dalemusser/mansiuk/internal/app/system/docstore/memdb"
	"github.com/dalemusser/mansiuk/internal/app/system/docstore/mongodb"
	"github.com/dalemusser/mansiuk/internal/app/system/indexes"
	"github.com/dalemusser/mansiuk/internal/app/system/timeouts"
	"github.com/dalemusser/mansiuk/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// ConnectDB initializes the Firebase app (identity provider) and the
// configured document store backend.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	fbApp, err := newFirebaseApp(ctx, appCfg, logger)
	if err != nil {
		return DBDeps{}, err
	}
	authClient, err := fbApp.Auth(ctx)
	if err != nil {
		return DBDeps{}, fmt.Errorf("firebase auth client: %w", err)
	}
	deps := DBDeps{Verifier: auth.NewFirebaseVerifier(authClient)}

	switch appCfg.StoreBackend {
	case BackendFirestore:
		fs, err := fbApp.Firestore(ctx)
		if err != nil {
			return DBDeps{}, fmt.Errorf("firestore client: %w", err)
		}
		deps.Firestore = fs
		deps.Store = firestoredb.New(fs)
		logger.Info("using Firestore document store", zap.String("project", appCfg.FirebaseProjectID))

	case BackendMongo:
		client, err := connectMongo(ctx, appCfg.MongoURI)
		if err != nil {
			return DBDeps{}, err
		}
		deps.MongoClient = client
		deps.MongoDatabase = client.Database(appCfg.MongoDatabase)
		deps.Store = mongodb.New(deps.MongoDatabase, logger)
		logger.Info("using MongoDB document store", zap.String("database", appCfg.MongoDatabase))

	case BackendMemory:
		deps.Store = memdb.New()
		logger.Warn("using in-memory document store; data is lost on restart")

	default:
		return DBDeps{}, fmt.Errorf("unknown store_backend %q", appCfg.StoreBackend)
	}

	return deps, nil
}

// newFirebaseApp prefers base64 credentials, then a credentials file, then
// Application Default Credentials.
func newFirebaseApp(ctx context.Context, appCfg AppConfig, logger *zap.Logger) (*firebase.App, error) {
	var opts []option.ClientOption
	switch {
	case appCfg.FirebaseCredentialsBase64 != "":
		decoded, err := base64.StdEncoding.DecodeString(appCfg.FirebaseCredentialsBase64)
		if err != nil {
			return nil, fmt.Errorf("decode firebase credentials: %w", err)
		}
		logger.Info("using Firebase credentials from base64 config value")
		opts = append(opts, option.WithCredentialsJSON(decoded))
	case appCfg.FirebaseCredentialsFile != "":
		logger.Info("using Firebase credentials file", zap.String("path", appCfg.FirebaseCredentialsFile))
		opts = append(opts, option.WithCredentialsFile(appCfg.FirebaseCredentialsFile))
	default:
		logger.Info("using Application Default Credentials for Firebase")
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: appCfg.FirebaseProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}
	return app, nil
}

func connectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// EnsureSchema creates the MongoDB collections, validators and indexes.
// Firestore composite indexes are deployed from firestore.indexes.json; the
// memory store needs none.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.MongoDatabase == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	if err := validators.EnsureAll(ctx, deps.MongoDatabase, logger); err != nil {
		logger.Error("ensure collection validators failed", zap.Error(err))
		return fmt.Errorf("ensure validators: %w", err)
	}
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase, logger); err != nil {
		logger.Error("ensure indexes failed", zap.Error(err))
		return fmt.Errorf("ensure indexes: %w", err)
	}
	return nil
}
