package dbmongo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"thriftstore/internal/common"
)

type ImageStorage struct {
	gridFS *gridfs.Bucket
}

func NewImageStorage(mongoClient *MongoClient) *ImageStorage {
	return &ImageStorage{
		gridFS: mongoClient.GridFS,
	}
}

type ImageFile struct {
	ID         string           `json:"id"`
	Filename   string           `json:"filename"`
	Size       int64            `json:"size"`
	ImageType  common.ImageType `json:"image_type"`
	ListingID  uint             `json:"listing_id"`
	UploadedBy uint             `json:"uploaded_by"`
	UploadedAt time.Time        `json:"uploaded_at"`
}

func (is *ImageStorage) Upload(ctx context.Context, filename string, imageType common.ImageType, listingID, uploaderID uint, content io.Reader) (*ImageFile, error) {
	metadata := bson.M{
		"image_type":  imageType.String(),
		"mime_type":   imageType.MimeType(),
		"listing_id":  strconv.FormatUint(uint64(listingID), 10),
		"uploaded_by": strconv.FormatUint(uint64(uploaderID), 10),
		"uploaded_at": time.Now(),
	}

	opts := options.GridFSUpload().SetMetadata(metadata)
	stream, err := is.gridFS.OpenUploadStream(filename, opts)
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}

	size, err := io.Copy(stream, content)
	if err != nil {
		_ = stream.Abort()
		return nil, fmt.Errorf("file copy failed: %w", err)
	}
	if err := stream.Close(); err != nil {
		return nil, fmt.Errorf("upload finalize failed: %w", err)
	}

	return &ImageFile{
		ID:         stream.FileID.(primitive.ObjectID).Hex(),
		Filename:   filename,
		Size:       size,
		ImageType:  imageType,
		ListingID:  listingID,
		UploadedBy: uploaderID,
		UploadedAt: time.Now(),
	}, nil
}

// Download returns the open GridFS stream. Callers must close it.
func (is *ImageStorage) Download(ctx context.Context, fileID string) (io.ReadCloser, *ImageFile, error) {
	objectID, err := primitive.ObjectIDFromHex(fileID)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid file ID %q: %w", fileID, common.ErrNotFound)
	}

	stream, err := is.gridFS.OpenDownloadStream(objectID)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, nil, fmt.Errorf("image %s: %w", fileID, common.ErrNotFound)
		}
		return nil, nil, fmt.Errorf("download failed: %w", err)
	}

	fileInfo := stream.GetFile()
	var metadata bson.M
	if fileInfo.Metadata != nil {
		_ = bson.Unmarshal(fileInfo.Metadata, &metadata)
	}

	imageType := common.ImageType(stringFromMap(metadata, "image_type"))
	if !imageType.IsValid() {
		imageType = common.ImageTypeFromFilename(fileInfo.Name)
	}

	image := &ImageFile{
		ID:         fileID,
		Filename:   fileInfo.Name,
		Size:       fileInfo.Length,
		ImageType:  imageType,
		ListingID:  uintFromMap(metadata, "listing_id"),
		UploadedBy: uintFromMap(metadata, "uploaded_by"),
		UploadedAt: fileInfo.UploadDate,
	}

	return stream, image, nil
}

func (is *ImageStorage) Delete(ctx context.Context, fileID string) error {
	objectID, err := primitive.ObjectIDFromHex(fileID)
	if err != nil {
		return fmt.Errorf("invalid file ID %q: %w", fileID, common.ErrNotFound)
	}
	if err := is.gridFS.DeleteContext(ctx, objectID); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return fmt.Errorf("image %s: %w", fileID, common.ErrNotFound)
		}
		return fmt.Errorf("delete failed: %w", err)
	}
	return nil
}

func stringFromMap(m bson.M, key string) string {
	if m == nil {
		return ""
	}
	if val, ok := m[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

func uintFromMap(m bson.M, key string) uint {
	n, err := strconv.ParseUint(stringFromMap(m, key), 10, 64)
	if err != nil {
		return 0
	}
	return uint(n)
}
