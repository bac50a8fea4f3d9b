// internal/domain/models/activitylog.go
package models

import "time"

// Target types recorded on activity logs.
const (
	TargetUser        = "user"
	TargetRequest     = "request"
	TargetApplication = "application"
	TargetSystem      = "system"
)

// ActivityLog is one immutable record of an administrative action.
type ActivityLog struct {
	ID          string         `firestore:"-" bson:"_id" json:"id"`
	UserID      string         `firestore:"userId" bson:"userId" json:"userId"` // actor
	Action      string         `firestore:"action" bson:"action" json:"action"`
	TargetType  string         `firestore:"targetType" bson:"targetType" json:"targetType"`
	TargetID    string         `firestore:"targetId" bson:"targetId" json:"targetId"`
	Description string         `firestore:"description" bson:"description" json:"description"`
	Changes     map[string]any `firestore:"changes,omitempty" bson:"changes,omitempty" json:"changes,omitempty"`
	CreatedAt   time.Time      `firestore:"createdAt" bson:"createdAt" json:"createdAt"`
}

// SetDocID sets the document id after a backend decoded the body.
func (l *ActivityLog) SetDocID(id string) { l.ID = id }
