package dbmongo

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thriftstore/internal/common"
	"thriftstore/internal/config"
)

// Runs against a live MongoDB when MONGO_INTEGRATION=1, e.g. from docker compose.
func integrationClient(t *testing.T) *MongoClient {
	t.Helper()
	if os.Getenv("MONGO_INTEGRATION") != "1" {
		t.Skip("set MONGO_INTEGRATION=1 to run against a live MongoDB")
	}

	cfg := &config.Config{
		MongoDB: config.MongoDBConfig{
			Host:        getEnvOrDefault("MONGO_HOST", "localhost"),
			Port:        getEnvOrDefault("MONGO_PORT", "27017"),
			Username:    os.Getenv("MONGO_USERNAME"),
			Password:    os.Getenv("MONGO_PASSWORD"),
			Database:    getEnvOrDefault("MONGO_DATABASE", "thriftstore_test"),
			ImageBucket: "listing_images_test",
		},
	}
	client, err := NewMongoConnection(cfg)
	require.NoError(t, err)
	require.Equal(t, "listing_images_test", client.Bucket)
	t.Cleanup(func() { client.Close(context.Background()) })
	return client
}

func TestImageStorage_Integration(t *testing.T) {
	ctx := context.Background()
	storage := NewImageStorage(integrationClient(t))

	uploaded, err := storage.Upload(ctx, "bike.png", common.ImageTypePNG, 7, 3, strings.NewReader("fake png bytes"))
	require.NoError(t, err)
	assert.Equal(t, int64(len("fake png bytes")), uploaded.Size)

	reader, image, err := storage.Download(ctx, uploaded.ID)
	require.NoError(t, err)
	body, err := io.ReadAll(reader)
	require.NoError(t, err)
	reader.Close()

	assert.Equal(t, "fake png bytes", string(body))
	assert.Equal(t, common.ImageTypePNG, image.ImageType)
	assert.Equal(t, uint(7), image.ListingID)
	assert.Equal(t, uint(3), image.UploadedBy)

	require.NoError(t, storage.Delete(ctx, uploaded.ID))
	_, _, err = storage.Download(ctx, uploaded.ID)
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestImageStorage_InvalidID(t *testing.T) {
	storage := &ImageStorage{}

	_, _, err := storage.Download(context.Background(), "not-an-object-id")
	assert.True(t, errors.Is(err, common.ErrNotFound))

	err = storage.Delete(context.Background(), "zzz")
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
