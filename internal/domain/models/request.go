// internal/domain/models/request.go
package models

import (
	"strings"
	"time"
)

// RequestStatus is the lifecycle state of a help request.
type RequestStatus string

const (
	RequestPending    RequestStatus = "pending"
	RequestOpen       RequestStatus = "open"
	RequestPublished  RequestStatus = "published"
	RequestMatched    RequestStatus = "matched"
	RequestInProgress RequestStatus = "in-progress"
	RequestCompleted  RequestStatus = "completed"
	RequestCancelled  RequestStatus = "cancelled"
)

// RequestStatuses lists every request status in lifecycle order.
var RequestStatuses = []RequestStatus{
	RequestPending,
	RequestOpen,
	RequestPublished,
	RequestMatched,
	RequestInProgress,
	RequestCompleted,
	RequestCancelled,
}

// ParseRequestStatus normalizes s and reports whether it names a request status.
// "in_progress" is accepted as an alias of "in-progress".
func ParseRequestStatus(s string) (RequestStatus, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "in_progress" {
		s = string(RequestInProgress)
	}
	for _, st := range RequestStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// IsTerminal reports whether no further lifecycle transition leaves s.
func (s RequestStatus) IsTerminal() bool {
	return s == RequestCompleted || s == RequestCancelled
}

// ServiceField is a service category a request asks for.
type ServiceField string

// Known service categories.
const (
	FieldDailyHelper      ServiceField = "生活助手"
	FieldCommunityPartner ServiceField = "社區拍檔"
	FieldNeighbourhoodEar ServiceField = "街坊樹窿"
)

// Urgency values.
const (
	UrgencyUrgent = "urgent"
	UrgencyNormal = "normal"
)

// Requester is the person who asked for help. These fields are visible
// only to admins.
type Requester struct {
	Name     string `firestore:"name" bson:"name" json:"name"`
	Phone    string `firestore:"phone" bson:"phone" json:"phone"`
	Age      string `firestore:"age" bson:"age" json:"age"`
	District string `firestore:"district" bson:"district" json:"district"`
}

// Masked returns a copy with every field hidden.
func (r Requester) Masked() Requester {
	return Requester{Name: "***", Phone: "***", Age: "***", District: "***"}
}

// FollowUp is one contact record an admin kept for a request.
type FollowUp struct {
	Date    time.Time `firestore:"date" bson:"date" json:"date"`
	Method  string    `firestore:"method" bson:"method" json:"method"`
	Content string    `firestore:"content" bson:"content" json:"content"`
	AdminID string    `firestore:"adminId" bson:"adminId" json:"adminId"`
}

// Request is a help request submitted by a community member.
//
// NOTE:
//   - IsMerged is always written so listings can filter on isMerged == false.
//   - On a surviving request MergedWith lists the absorbed ids; on an absorbed
//     request it holds exactly one id, the survivor.
type Request struct {
	ID string `firestore:"-" bson:"_id" json:"id"`

	Requester   Requester      `firestore:"requester" bson:"requester" json:"requester"`
	Description string         `firestore:"description" bson:"description" json:"description"`
	Fields      []ServiceField `firestore:"fields" bson:"fields" json:"fields"`

	Urgency           string `firestore:"urgency,omitempty" bson:"urgency,omitempty" json:"urgency,omitempty"`
	ServiceType       string `firestore:"serviceType,omitempty" bson:"serviceType,omitempty" json:"serviceType,omitempty"`
	EstimatedDuration string `firestore:"estimatedDuration,omitempty" bson:"estimatedDuration,omitempty" json:"estimatedDuration,omitempty"`
	Appreciation      string `firestore:"appreciation,omitempty" bson:"appreciation,omitempty" json:"appreciation,omitempty"`
	AdminNotes        string `firestore:"adminNotes,omitempty" bson:"adminNotes,omitempty" json:"adminNotes,omitempty"`

	Status               RequestStatus `firestore:"status" bson:"status" json:"status"`
	AssignedVolunteerIDs []string      `firestore:"assignedVolunteerIds,omitempty" bson:"assignedVolunteerIds,omitempty" json:"assignedVolunteerIds,omitempty"`

	MatchedAt   *time.Time `firestore:"matchedAt,omitempty" bson:"matchedAt,omitempty" json:"matchedAt,omitempty"`
	CompletedAt *time.Time `firestore:"completedAt,omitempty" bson:"completedAt,omitempty" json:"completedAt,omitempty"`

	IsMerged   bool     `firestore:"isMerged" bson:"isMerged" json:"isMerged"`
	MergedWith []string `firestore:"mergedWith,omitempty" bson:"mergedWith,omitempty" json:"mergedWith,omitempty"`

	FollowUps []FollowUp `firestore:"followUps,omitempty" bson:"followUps,omitempty" json:"followUps,omitempty"`

	CreatedAt time.Time `firestore:"createdAt" bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt" bson:"updatedAt" json:"updatedAt"`
}

// SetDocID sets the document id after a backend decoded the body.
func (r *Request) SetDocID(id string) { r.ID = id }

// TrackingNumber is the short reference handed to the requester.
func (r Request) TrackingNumber() string {
	id := r.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return strings.ToUpper(id)
}
