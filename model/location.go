package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LocationRecord aggregates every photo a user took at one exact
// coordinate. It is created by the first upload at a novel coordinate
// and deleted in the same operation that removes its last image.
type LocationRecord struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"user_id" json:"-"`
	Latitude  float64            `bson:"latitude" json:"latitude"`
	Longitude float64            `bson:"longitude" json:"longitude"`
	Country   string             `bson:"country" json:"country"`
	Address   string             `bson:"address" json:"address"`
	Images    []string           `bson:"images" json:"images"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// Marker is the map-view projection of a LocationRecord.
type Marker struct {
	ID     string   `json:"id"`
	Lat    float64  `json:"lat"`
	Lng    float64  `json:"lng"`
	Images []string `json:"images"`
}

func (r LocationRecord) Marker() Marker {
	return Marker{
		ID:     r.ID.Hex(),
		Lat:    r.Latitude,
		Lng:    r.Longitude,
		Images: r.Images,
	}
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Place is the reverse-geocoded view of a coordinate. Country and
// Address are resolved once when a record is created and never again.
type Place struct {
	Country string `json:"country"`
	Address string `json:"address"`
}
