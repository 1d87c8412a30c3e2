package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taskpulse/taskpulse-go/internal/tasks"
)

// MongoRepo stores tasks in a collection with integer ids drawn from a
// counters collection.
type MongoRepo struct {
	col      *mongo.Collection
	counters *mongo.Collection
}

// NewMongoRepo wires the repository to db and ensures its indexes.
func NewMongoRepo(ctx context.Context, db *mongo.Database) (*MongoRepo, error) {
	col := db.Collection("tasks")
	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "id", Value: 1}}},
	})
	if err != nil {
		return nil, err
	}
	return &MongoRepo{col: col, counters: db.Collection("counters")}, nil
}

func (m *MongoRepo) nextID(ctx context.Context) (int64, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := m.counters.FindOneAndUpdate(ctx, bson.M{"_id": "tasks"}, bson.M{"$inc": bson.M{"seq": 1}}, opts).Decode(&doc)
	return doc.Seq, err
}

func (m *MongoRepo) Create(ctx context.Context, t *tasks.Task) error {
	id, err := m.nextID(ctx)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	t.ID = id
	t.CreatedAt = now
	t.UpdatedAt = now
	_, err = m.col.InsertOne(ctx, t)
	return err
}

func (m *MongoRepo) Get(ctx context.Context, owner, id int64) (*tasks.Task, error) {
	var t tasks.Task
	err := m.col.FindOne(ctx, bson.M{"id": id, "user_id": owner}).Decode(&t)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (m *MongoRepo) List(ctx context.Context, owner int64) ([]*tasks.Task, error) {
	cur, err := m.col.Find(ctx, bson.M{"user_id": owner}, options.Find().SetSort(bson.D{{Key: "id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*tasks.Task{}
	for cur.Next(ctx) {
		var t tasks.Task
		if err := cur.Decode(&t); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, cur.Err()
}

func (m *MongoRepo) Update(ctx context.Context, owner, id int64, u tasks.TaskUpdate) (*tasks.Task, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if u.Title != nil {
		set["title"] = *u.Title
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.IsCompleted != nil {
		set["is_completed"] = *u.IsCompleted
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var t tasks.Task
	err := m.col.FindOneAndUpdate(ctx, bson.M{"id": id, "user_id": owner}, bson.M{"$set": set}, opts).Decode(&t)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (m *MongoRepo) Delete(ctx context.Context, owner, id int64) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"id": id, "user_id": owner})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
