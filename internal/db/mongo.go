package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// ConnectMongoDB opens the client and verifies it with a ping.
func ConnectMongoDB(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}
	return &MongoStore{client: client, db: client.Database(dbName)}, nil
}

func (s *MongoStore) Disconnect(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// GetCollection returns a MongoDB collection
func (s *MongoStore) GetCollection(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// EnsureIndexes creates the sparse unique indexes. Sparse so that documents
// missing email or userId do not collide on null.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	unique := func(field string) mongo.IndexModel {
		return mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		}
	}
	if _, err := s.GetCollection(Profiles).Indexes().CreateMany(ctx, []mongo.IndexModel{unique("email"), unique("userId")}); err != nil {
		return fmt.Errorf("profiles indexes: %w", err)
	}
	if _, err := s.GetCollection(AdminUsers).Indexes().CreateOne(ctx, unique("email")); err != nil {
		return fmt.Errorf("admin_users indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) Find(ctx context.Context, collection string, filter bson.M, opts FindOptions) ([]bson.M, error) {
	cursor, err := s.GetCollection(collection).Find(ctx, nonNil(filter), findOptions(opts))
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	docs := []bson.M{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", collection, err)
	}
	return docs, nil
}

func (s *MongoStore) Count(ctx context.Context, collection string, filter bson.M) (int64, error) {
	n, err := s.GetCollection(collection).CountDocuments(ctx, nonNil(filter))
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return n, nil
}

func (s *MongoStore) FindOne(ctx context.Context, collection string, filter bson.M, out interface{}) error {
	err := s.GetCollection(collection).FindOne(ctx, nonNil(filter)).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("find one %s: %w", collection, err)
	}
	return nil
}

func (s *MongoStore) Insert(ctx context.Context, collection string, doc interface{}) (bson.M, error) {
	m, err := withID(doc)
	if err != nil {
		return nil, err
	}
	if _, err := s.GetCollection(collection).InsertOne(ctx, m); err != nil {
		return nil, fmt.Errorf("insert %s: %w", collection, err)
	}
	return m, nil
}

func (s *MongoStore) InsertMany(ctx context.Context, collection string, docs []interface{}) ([]bson.M, error) {
	if len(docs) == 0 {
		return []bson.M{}, nil
	}
	out := make([]bson.M, 0, len(docs))
	batch := make([]interface{}, 0, len(docs))
	for _, d := range docs {
		m, err := withID(d)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
		batch = append(batch, m)
	}
	if _, err := s.GetCollection(collection).InsertMany(ctx, batch); err != nil {
		return nil, fmt.Errorf("insert many %s: %w", collection, err)
	}
	return out, nil
}

func (s *MongoStore) Upsert(ctx context.Context, collection string, filter, set, setOnInsert bson.M) error {
	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(setOnInsert) > 0 {
		update["$setOnInsert"] = setOnInsert
	}
	if len(update) == 0 {
		return nil
	}
	_, err := s.GetCollection(collection).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert %s: %w", collection, err)
	}
	return nil
}

func (s *MongoStore) Increment(ctx context.Context, collection string, filter bson.M, field string, by int) (bson.M, error) {
	var out bson.M
	err := s.GetCollection(collection).FindOneAndUpdate(
		ctx,
		filter,
		bson.M{"$inc": bson.M{field: by}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("increment %s.%s: %w", collection, field, err)
	}
	return out, nil
}

// findOptions leaves zero Skip and Limit unset so the driver applies no bound.
func findOptions(opts FindOptions) *options.FindOptions {
	fo := options.Find()
	if len(opts.Sort) > 0 {
		fo.SetSort(opts.Sort)
	}
	if opts.Skip > 0 {
		fo.SetSkip(opts.Skip)
	}
	if opts.Limit > 0 {
		fo.SetLimit(opts.Limit)
	}
	return fo
}

func withID(doc interface{}) (bson.M, error) {
	m, err := ToDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	if _, ok := m["_id"]; !ok {
		m["_id"] = primitive.NewObjectID()
	}
	return m, nil
}

func nonNil(filter bson.M) bson.M {
	if filter == nil {
		return bson.M{}
	}
	return filter
}
