package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/furever-community/backend/internal/models"
)

// MongoStore handles event and shelter documents in MongoDB.
type MongoStore struct {
	events   *mongo.Collection
	shelters *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		events:   db.Collection("events"),
		shelters: db.Collection("shelters"),
	}
}

// EnsureIndexes creates the event date index and the 2dsphere index
// backing shelter proximity queries.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.events.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "date", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("events date index: %w", err)
	}
	_, err = s.shelters.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "location", Value: "2dsphere"}},
	})
	if err != nil {
		return fmt.Errorf("shelters 2dsphere index: %w", err)
	}
	return nil
}

// ── Events ───────────────────────────────────────────────────────────

func (s *MongoStore) InsertEvent(ctx context.Context, ev *models.Event) (string, error) {
	ev.CreatedAt = time.Now()
	res, err := s.events.InsertOne(ctx, ev)
	if err != nil {
		return "", fmt.Errorf("mongo insert event: %w", err)
	}
	oid := res.InsertedID.(primitive.ObjectID)
	return oid.Hex(), nil
}

// ListEvents returns all events sorted by date ascending.
func (s *MongoStore) ListEvents(ctx context.Context) ([]models.Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	cur, err := s.events.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var events []models.Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (s *MongoStore) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var ev models.Event
	if err := s.events.FindOne(ctx, bson.M{"_id": oid}).Decode(&ev); err != nil {
		return nil, mapMongoError("get event", err)
	}
	return &ev, nil
}

// UpdateEvent overwrites only the fields set in upd and returns the
// document after the write. created_by is never part of the $set.
func (s *MongoStore) UpdateEvent(ctx context.Context, id string, upd models.EventUpdate) (*models.Event, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	set := bson.M{}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Date != nil {
		set["date"] = *upd.Date
	}
	if upd.Location != nil {
		set["location"] = *upd.Location
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if len(set) == 0 {
		return s.GetEvent(ctx, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var ev models.Event
	err = s.events.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&ev)
	if err != nil {
		return nil, mapMongoError("update event", err)
	}
	return &ev, nil
}

// SetEventImage records the MinIO object key of the event's image.
func (s *MongoStore) SetEventImage(ctx context.Context, id, objectKey string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := s.events.UpdateOne(ctx, bson.M{"_id": oid},
		bson.M{"$set": bson.M{"image_object_key": objectKey}})
	if err != nil {
		return fmt.Errorf("set event image: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteEvent(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := s.events.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("mongo delete event: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ── Shelters ─────────────────────────────────────────────────────────

func (s *MongoStore) ListShelters(ctx context.Context) ([]models.Shelter, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cur, err := s.shelters.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var shelters []models.Shelter
	if err := cur.All(ctx, &shelters); err != nil {
		return nil, err
	}
	return shelters, nil
}

func (s *MongoStore) GetShelter(ctx context.Context, id string) (*models.Shelter, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var sh models.Shelter
	if err := s.shelters.FindOne(ctx, bson.M{"_id": oid}).Decode(&sh); err != nil {
		return nil, mapMongoError("get shelter", err)
	}
	return &sh, nil
}

// NearbyShelters returns shelters within maxMeters of the point,
// nearest first, using the 2dsphere index.
func (s *MongoStore) NearbyShelters(ctx context.Context, lng, lat, maxMeters float64) ([]models.Shelter, error) {
	filter := bson.M{
		"location": bson.M{
			"$nearSphere": bson.M{
				"$geometry": bson.M{
					"type":        "Point",
					"coordinates": []float64{lng, lat},
				},
				"$maxDistance": maxMeters,
			},
		},
	}
	cur, err := s.shelters.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var shelters []models.Shelter
	if err := cur.All(ctx, &shelters); err != nil {
		return nil, err
	}
	return shelters, nil
}

func mapMongoError(op string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
