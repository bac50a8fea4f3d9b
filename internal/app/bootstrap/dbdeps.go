// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"cloud.google.com/go/firestore"
	"github.com/dalemusser/mansiuk/internal/app/system/auth"
	"github.com/dalemusser/mansiuk/internal/app/system/docstore"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	// Store is the selected document store backend.
	Store docstore.DB

	// Verifier checks Firebase ID tokens and session cookies.
	Verifier auth.Verifier

	// Backend clients, set only for the backend in use.
	Firestore     *firestore.Client
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database
}
