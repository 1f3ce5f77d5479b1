package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// GeoPoint is a GeoJSON Point: coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string    `json:"type"        bson:"type"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates"`
}

// Shelter is read-mostly reference data stored in MongoDB and
// maintained outside the API (seeded by ops tooling).
type Shelter struct {
	ID          primitive.ObjectID `json:"id"                    bson:"_id,omitempty"`
	Name        string             `json:"name"                  bson:"name"`
	Address     string             `json:"address"               bson:"address"`
	Phone       string             `json:"phone"                 bson:"phone"`
	Email       string             `json:"email"                 bson:"email"`
	Website     string             `json:"website,omitempty"     bson:"website,omitempty"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
	Location    GeoPoint           `json:"location"              bson:"location"`
}
