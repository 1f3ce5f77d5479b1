package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Event is a community event stored in MongoDB. CreatedBy holds the
// owning user's id and never changes after insert.
type Event struct {
	ID             primitive.ObjectID `json:"id"          bson:"_id,omitempty"`
	Name           string             `json:"name"        bson:"name"`
	Date           time.Time          `json:"date"        bson:"date"`
	Location       string             `json:"location"    bson:"location"`
	Description    string             `json:"description" bson:"description"`
	CreatedBy      string             `json:"-"           bson:"created_by"`
	ImageObjectKey string             `json:"-"           bson:"image_object_key,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"  bson:"created_at"`
}

// EventRequest is the JSON body for POST and PUT /api/events. Date is
// RFC 3339. On update, empty fields keep their current value.
type EventRequest struct {
	Name        string `json:"name"`
	Date        string `json:"date"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// EventUpdate carries the fields an update overwrites; nil pointers
// are left untouched.
type EventUpdate struct {
	Name        *string
	Date        *time.Time
	Location    *string
	Description *string
}
