// internal/domain/models/application.go
package models

import (
	"strings"
	"time"
)

// ApplicationStatus is the lifecycle state of a volunteer application.
type ApplicationStatus string

const (
	ApplicationPending   ApplicationStatus = "pending"
	ApplicationApproved  ApplicationStatus = "approved"
	ApplicationRejected  ApplicationStatus = "rejected"
	ApplicationCompleted ApplicationStatus = "completed"
)

// ParseApplicationStatus normalizes s and reports whether it names an
// application status. "accepted" is accepted as an alias of "approved".
func ParseApplicationStatus(s string) (ApplicationStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return ApplicationPending, true
	case "approved", "accepted":
		return ApplicationApproved, true
	case "rejected":
		return ApplicationRejected, true
	case "completed":
		return ApplicationCompleted, true
	}
	return "", false
}

// Application is one volunteer's application to one request.
// (RequestID, VolunteerID) is unique.
type Application struct {
	ID            string            `firestore:"-" bson:"_id" json:"id"`
	RequestID     string            `firestore:"requestId" bson:"requestId" json:"requestId"`
	VolunteerID   string            `firestore:"volunteerId" bson:"volunteerId" json:"volunteerId"`
	VolunteerName string            `firestore:"volunteerName,omitempty" bson:"volunteerName,omitempty" json:"volunteerName,omitempty"`
	Message       string            `firestore:"message,omitempty" bson:"message,omitempty" json:"message,omitempty"`
	AvailableTime string            `firestore:"availableTime,omitempty" bson:"availableTime,omitempty" json:"availableTime,omitempty"`
	AdminNotes    string            `firestore:"adminNotes,omitempty" bson:"adminNotes,omitempty" json:"adminNotes,omitempty"`
	Status        ApplicationStatus `firestore:"status" bson:"status" json:"status"`

	MatchedAt   *time.Time `firestore:"matchedAt,omitempty" bson:"matchedAt,omitempty" json:"matchedAt,omitempty"`
	CompletedAt *time.Time `firestore:"completedAt,omitempty" bson:"completedAt,omitempty" json:"completedAt,omitempty"`

	CreatedAt time.Time `firestore:"createdAt" bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt" bson:"updatedAt" json:"updatedAt"`
}

// SetDocID sets the document id after a backend decoded the body.
func (a *Application) SetDocID(id string) { a.ID = id }
