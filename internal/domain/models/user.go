// internal/domain/models/user.go
package models

import (
	"strings"
	"time"
)

// Role is what a signed-in user may do.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleVolunteer Role = "volunteer"
)

// UserStatus is the review state of a volunteer account.
type UserStatus string

const (
	UserPending   UserStatus = "pending"
	UserApproved  UserStatus = "approved"
	UserRejected  UserStatus = "rejected"
	UserSuspended UserStatus = "suspended"
)

// ParseUserStatus normalizes s and reports whether it names a user status.
func ParseUserStatus(s string) (UserStatus, bool) {
	switch st := UserStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case UserPending, UserApproved, UserRejected, UserSuspended:
		return st, true
	}
	return "", false
}

// User is an admin or volunteer. The document id is the Firebase UID.
type User struct {
	UID         string     `firestore:"-" bson:"_id" json:"uid"`
	Email       string     `firestore:"email" bson:"email" json:"email"`
	Role        Role       `firestore:"role" bson:"role" json:"role"`
	Status      UserStatus `firestore:"status" bson:"status" json:"status"`
	DisplayName string     `firestore:"displayName" bson:"displayName" json:"displayName"`
	Phone       string     `firestore:"phone,omitempty" bson:"phone,omitempty" json:"phone,omitempty"`
	Age         string     `firestore:"age,omitempty" bson:"age,omitempty" json:"age,omitempty"`

	// Volunteer profile
	Fields         []ServiceField `firestore:"fields,omitempty" bson:"fields,omitempty" json:"fields,omitempty"`
	Skills         []string       `firestore:"skills,omitempty" bson:"skills,omitempty" json:"skills,omitempty"`
	Availability   []string       `firestore:"availability,omitempty" bson:"availability,omitempty" json:"availability,omitempty"`
	TargetAudience []string       `firestore:"targetAudience,omitempty" bson:"targetAudience,omitempty" json:"targetAudience,omitempty"`
	Goals          string         `firestore:"goals,omitempty" bson:"goals,omitempty" json:"goals,omitempty"`

	// Review
	InterviewDate   *time.Time `firestore:"interviewDate,omitempty" bson:"interviewDate,omitempty" json:"interviewDate,omitempty"`
	InterviewNotes  string     `firestore:"interviewNotes,omitempty" bson:"interviewNotes,omitempty" json:"interviewNotes,omitempty"`
	RejectionReason string     `firestore:"rejectionReason,omitempty" bson:"rejectionReason,omitempty" json:"rejectionReason,omitempty"`

	CompletedTasks int `firestore:"completedTasks" bson:"completedTasks" json:"completedTasks"`

	CreatedAt time.Time `firestore:"createdAt" bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt" bson:"updatedAt" json:"updatedAt"`
}

// SetDocID sets the document id after a backend decoded the body.
func (u *User) SetDocID(id string) { u.UID = id }
