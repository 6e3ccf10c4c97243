package storage

import (
	"context"
	"time"

	"photomap/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// PlaceResolver supplies country and address for a coordinate. The
// index calls it exactly once, when a record is created; existing
// records keep whatever was resolved at creation time.
type PlaceResolver func(ctx context.Context, lat, lng float64) (model.Place, error)

// LocationIndex is the per-user collection of location records. Every
// operation is scoped to the calling user's partition.
type LocationIndex interface {
	FindByCoordinate(ctx context.Context, userID string, lat, lng float64) (*model.LocationRecord, error)
	FindByCountry(ctx context.Context, userID, country string) ([]string, error)
	ListAll(ctx context.Context, userID string) ([]model.LocationRecord, error)
	ListCountries(ctx context.Context, userID string) ([]string, error)
	UpsertImage(ctx context.Context, userID string, coords model.Coordinates, imageURL string, resolve PlaceResolver) (*model.LocationRecord, error)
	RemoveImage(ctx context.Context, userID, imageURL string) error
}

type MongoLocationIndex struct {
	Log *zap.Logger

	mongoClient *mongo.Client
	collection  *mongo.Collection
}

func (db *MongoLocationIndex) Connect(ctx context.Context, connectionString, databaseName, collectionName string) error {
	var err error
	db.mongoClient, err = mongo.Connect(ctx, options.Client().ApplyURI(connectionString))
	if err != nil {
		return err
	}

	if err = db.mongoClient.Ping(ctx, nil); err != nil {
		return err
	}

	db.collection = db.mongoClient.Database(databaseName).Collection(collectionName)

	db.Log.Info("connected to MongoDB",
		zap.String("database", databaseName),
		zap.String("collection", collectionName))
	return nil
}

func (db *MongoLocationIndex) Close(ctx context.Context) error {
	if db.mongoClient == nil {
		return nil
	}
	if err := db.mongoClient.Disconnect(ctx); err != nil {
		return err
	}
	db.Log.Info("disconnected from MongoDB")
	return nil
}

func (db *MongoLocationIndex) FindByCoordinate(ctx context.Context, userID string, lat, lng float64) (*model.LocationRecord, error) {
	filter := bson.D{
		{Key: "user_id", Value: userID},
		{Key: "latitude", Value: lat},
		{Key: "longitude", Value: lng},
	}

	var record model.LocationRecord
	err := db.collection.FindOne(ctx, filter).Decode(&record)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (db *MongoLocationIndex) FindByCountry(ctx context.Context, userID, country string) ([]string, error) {
	filter := bson.D{
		{Key: "user_id", Value: userID},
		{Key: "country", Value: country},
	}

	cursor, err := db.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	var records []model.LocationRecord
	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}

	var images []string
	for _, r := range records {
		images = append(images, r.Images...)
	}
	return images, nil
}

func (db *MongoLocationIndex) ListAll(ctx context.Context, userID string) ([]model.LocationRecord, error) {
	filter := bson.D{{Key: "user_id", Value: userID}}

	cursor, err := db.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	var records []model.LocationRecord
	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (db *MongoLocationIndex) ListCountries(ctx context.Context, userID string) ([]string, error) {
	filter := bson.D{{Key: "user_id", Value: userID}}

	values, err := db.collection.Distinct(ctx, "country", filter)
	if err != nil {
		return nil, err
	}

	countries := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			countries = append(countries, s)
		}
	}
	return countries, nil
}

// UpsertImage appends imageURL to the record at the given coordinate,
// creating the record (and resolving its place) when none exists. The
// find-then-write is not atomic: two concurrent uploads at a brand-new
// coordinate can each miss the find and create two records. The cost is
// a duplicate marker, so this mirrors the remote store's semantics
// instead of guarding it with a transaction.
func (db *MongoLocationIndex) UpsertImage(ctx context.Context, userID string, coords model.Coordinates, imageURL string, resolve PlaceResolver) (*model.LocationRecord, error) {
	existing, err := db.FindByCoordinate(ctx, userID, coords.Latitude, coords.Longitude)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		update := bson.D{{Key: "$push", Value: bson.D{{Key: "images", Value: imageURL}}}}
		if _, err := db.collection.UpdateByID(ctx, existing.ID, update); err != nil {
			return nil, err
		}
		existing.Images = append(existing.Images, imageURL)
		return existing, nil
	}

	place, err := resolve(ctx, coords.Latitude, coords.Longitude)
	if err != nil {
		return nil, err
	}

	record := model.LocationRecord{
		UserID:    userID,
		Latitude:  coords.Latitude,
		Longitude: coords.Longitude,
		Country:   place.Country,
		Address:   place.Address,
		Images:    []string{imageURL},
		CreatedAt: time.Now(),
	}
	result, err := db.collection.InsertOne(ctx, record)
	if err != nil {
		return nil, err
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		record.ID = oid
	}
	db.Log.Info("created location record",
		zap.String("user", userID),
		zap.Float64("lat", coords.Latitude),
		zap.Float64("lng", coords.Longitude),
		zap.String("country", place.Country))
	return &record, nil
}

// RemoveImage pulls imageURL out of whichever records contain it and
// deletes any record left with no images. An unknown URL is a no-op.
func (db *MongoLocationIndex) RemoveImage(ctx context.Context, userID, imageURL string) error {
	filter := bson.D{
		{Key: "user_id", Value: userID},
		{Key: "images", Value: imageURL},
	}

	cursor, err := db.collection.Find(ctx, filter)
	if err != nil {
		return err
	}
	var records []model.LocationRecord
	if err = cursor.All(ctx, &records); err != nil {
		return err
	}

	for _, record := range records {
		update := bson.D{{Key: "$pull", Value: bson.D{{Key: "images", Value: imageURL}}}}
		if _, err := db.collection.UpdateByID(ctx, record.ID, update); err != nil {
			return err
		}

		var updated model.LocationRecord
		if err := db.collection.FindOne(ctx, bson.D{{Key: "_id", Value: record.ID}}).Decode(&updated); err != nil {
			if err == mongo.ErrNoDocuments {
				continue
			}
			return err
		}
		if len(updated.Images) == 0 {
			if _, err := db.collection.DeleteOne(ctx, bson.D{{Key: "_id", Value: record.ID}}); err != nil {
				return err
			}
			db.Log.Info("deleted empty location record",
				zap.String("user", userID),
				zap.String("id", record.ID.Hex()))
		}
	}
	return nil
}
