package storage

import (
	"context"
	"crypto/tls"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore keeps one document per (namespace, key) pair.
type MongoStore struct {
	client *mongo.Client
	kvCol  *mongo.Collection
}

type kvDoc struct {
	Namespace string    `bson:"namespace"`
	Key       string    `bson:"key"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func NewMongoStore(ctx context.Context, mongoURI, dbName string, useTLS bool) (*MongoStore, error) {
	opts := options.Client().ApplyURI(mongoURI)
	if useTLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	col := client.Database(dbName).Collection("kv")

	// Best-effort indexes.
	_, _ = col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "namespace", Value: 1}, {Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	log.Info().Str("db", dbName).Msg("MongoDB connected (kv)")
	return &MongoStore{client: client, kvCol: col}, nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) Get(ctx context.Context, ns, key string) (string, error) {
	if err := checkNamespace(ns); err != nil {
		return "", err
	}
	var doc kvDoc
	err := s.kvCol.FindOne(ctx, bson.M{"namespace": ns, "key": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return doc.Value, nil
}

func (s *MongoStore) Set(ctx context.Context, ns, key, value string) error {
	if err := checkNamespace(ns); err != nil {
		return err
	}
	_, err := s.kvCol.UpdateOne(ctx,
		bson.M{"namespace": ns, "key": key},
		bson.M{"$set": bson.M{"value": value, "updated_at": time.Now()}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *MongoStore) Delete(ctx context.Context, ns, key string) error {
	if err := checkNamespace(ns); err != nil {
		return err
	}
	_, err := s.kvCol.DeleteOne(ctx, bson.M{"namespace": ns, "key": key})
	return err
}

func (s *MongoStore) Keys(ctx context.Context, ns string) ([]string, error) {
	if err := checkNamespace(ns); err != nil {
		return nil, err
	}
	cur, err := s.kvCol.Find(ctx, bson.M{"namespace": ns},
		options.Find().SetSort(bson.D{{Key: "key", Value: 1}}).SetProjection(bson.M{"key": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	keys := []string{}
	for cur.Next(ctx) {
		var doc kvDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		keys = append(keys, doc.Key)
	}
	return keys, cur.Err()
}

func (s *MongoStore) Clear(ctx context.Context, ns string) error {
	if err := checkNamespace(ns); err != nil {
		return err
	}
	_, err := s.kvCol.DeleteMany(ctx, bson.M{"namespace": ns})
	return err
}
