package tkey

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const metadataCollection = "metadata"

// metadataDocument is the stored shape; the record itself is kept as JSON so
// the file and mongo backends share one encoding.
type metadataDocument struct {
	ID        string    `bson:"_id"`
	Data      []byte    `bson:"data"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// MongoStorage keeps metadata documents in a MongoDB collection
type MongoStorage struct {
	client     *mongo.Client
	collection *mongo.Collection
	now        func() time.Time
}

// NewMongoStorage connects to uri and uses the metadata collection of database
func NewMongoStorage(ctx context.Context, uri, database string) (*MongoStorage, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return &MongoStorage{
		client:     client,
		collection: client.Database(database).Collection(metadataCollection),
		now:        time.Now,
	}, nil
}

// Close disconnects the underlying client
func (s *MongoStorage) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// GetMetadata implements StorageLayer
func (s *MongoStorage) GetMetadata(ctx context.Context, privKey []byte) (*Metadata, error) {
	keyID, err := MetadataKeyID(privKey)
	if err != nil {
		return nil, err
	}

	var doc metadataDocument
	err = s.collection.FindOne(ctx, bson.M{"_id": keyID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get metadata: %w", err)
	}

	var md Metadata
	if err := json.Unmarshal(doc.Data, &md); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return &md, nil
}

// SetMetadata implements StorageLayer
func (s *MongoStorage) SetMetadata(ctx context.Context, params SetMetadataParams) error {
	keyID, err := validateSetParams(params)
	if err != nil {
		return err
	}

	md := params.Input.clone()
	md.UpdatedAt = s.now().UTC()

	data, err := json.Marshal(md)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	_, err = s.collection.UpdateOne(ctx,
		bson.M{"_id": keyID},
		bson.M{"$set": bson.M{"data": data, "updatedAt": md.UpdatedAt}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to set metadata: %w", err)
	}
	return nil
}
