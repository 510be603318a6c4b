// Package dbmongo stores listing images in MongoDB GridFS.
package dbmongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"thriftstore/internal/config"
	"thriftstore/internal/logger"
)

const (
	DefaultImageBucket    = "listing_images"
	defaultConnectTimeout = 10 * time.Second
)

// MongoClient is a connected client scoped to the listing image bucket.
type MongoClient struct {
	Client   *mongo.Client
	Database *mongo.Database
	GridFS   *gridfs.Bucket
	Bucket   string
}

// bucketSettings fills in the image bucket name and connect timeout when
// the configuration leaves them empty.
func bucketSettings(c config.MongoDBConfig) (string, time.Duration) {
	bucket, timeout := c.ImageBucket, c.ConnectTimeout
	if bucket == "" {
		bucket = DefaultImageBucket
	}
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	return bucket, timeout
}

// NewMongoConnection connects, pings and opens the GridFS bucket that holds
// listing images.
func NewMongoConnection(c *config.Config) (*MongoClient, error) {
	if c.MongoDB.Database == "" {
		return nil, fmt.Errorf("mongodb database name is required")
	}
	bucketName, timeout := bucketSettings(c.MongoDB)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(c.GetMongoURI()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	database := client.Database(c.MongoDB.Database)
	bucket, err := gridfs.NewBucket(database, options.GridFSBucket().SetName(bucketName))
	if err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to open image bucket %q: %w", bucketName, err)
	}

	logger.Log.WithField("bucket", bucketName).Info("connected to listing image store")
	return &MongoClient{Client: client, Database: database, GridFS: bucket, Bucket: bucketName}, nil
}

func (mc *MongoClient) Close(ctx context.Context) error {
	return mc.Client.Disconnect(ctx)
}
