package listing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"thriftstore/internal/common"
	"thriftstore/internal/dbmongo"
	"thriftstore/internal/dbmysql"
	"thriftstore/internal/logger"
)

// ImageStore is the write side of dbmongo.ImageStorage. It is nil when
// MongoDB is disabled.
type ImageStore interface {
	Upload(ctx context.Context, filename string, imageType common.ImageType, listingID, uploaderID uint, content io.Reader) (*dbmongo.ImageFile, error)
	Delete(ctx context.Context, fileID string) error
}

type OwnerLookup interface {
	UserByID(ctx context.Context, userID uint) (*dbmysql.User, error)
}

type Input struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Quality     string   `json:"quality"`
	Location    string   `json:"location"`
	Category    string   `json:"category"`
	Price       float64  `json:"price"`
	Tags        []string `json:"tags"`
}

// Response is the wire shape of a listing: tag names and absolute image URLs.
type Response struct {
	ID          uint      `json:"id"`
	UserID      uint      `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Quality     string    `json:"quality"`
	Location    string    `json:"location"`
	Category    string    `json:"category"`
	Price       float64   `json:"price"`
	Tags        []string  `json:"tags"`
	Images      []string  `json:"images"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

var ErrImagesDisabled = errors.New("image storage is not configured")

type Service struct {
	repo         Repository
	owners       OwnerLookup
	images       ImageStore
	mediaBaseURL string
}

func NewService(repo Repository, owners OwnerLookup, images ImageStore, mediaBaseURL string) *Service {
	return &Service{repo: repo, owners: owners, images: images, mediaBaseURL: mediaBaseURL}
}

func (s *Service) List(ctx context.Context) ([]Response, error) {
	listings, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	return s.toResponses(listings), nil
}

func (s *Service) ListByUser(ctx context.Context, userID uint) ([]Response, error) {
	listings, err := s.repo.ByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.toResponses(listings), nil
}

// Create requires the owner to have registered a location. The listing
// location defaults to the owner's address.
func (s *Service) Create(ctx context.Context, ownerID uint, in Input) (*Response, error) {
	tags, err := common.ValidateListing(in.Name, in.Description, in.Price, in.Tags)
	if err != nil {
		return nil, err
	}

	owner, err := s.owners.UserByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if owner.AccessLevel < common.AccessLevelSeller {
		return nil, fmt.Errorf("add a location before listing items: %w", common.ErrForbidden)
	}

	location := strings.TrimSpace(in.Location)
	if location == "" {
		location = owner.Location
	}

	listing := &dbmysql.Listing{
		UserID:      ownerID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Quality:     in.Quality,
		Location:    location,
		Category:    in.Category,
		Price:       in.Price,
	}
	for _, tag := range tags {
		listing.Tags = append(listing.Tags, dbmysql.ListingTag{TagName: tag})
	}

	if err := s.repo.Create(ctx, listing); err != nil {
		return nil, err
	}

	logger.Log.WithField("listing_id", listing.ID).WithField("user_id", ownerID).Info("listing created")
	resp := s.toResponse(*listing)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, callerID, id uint, in Input) (*Response, error) {
	listing, err := s.ownedListing(ctx, callerID, id)
	if err != nil {
		return nil, err
	}

	tags, err := common.ValidateListing(in.Name, in.Description, in.Price, in.Tags)
	if err != nil {
		return nil, err
	}
	if in.Tags == nil {
		tags = nil
	}

	listing.Name = strings.TrimSpace(in.Name)
	listing.Description = in.Description
	listing.Quality = in.Quality
	listing.Category = in.Category
	listing.Price = in.Price
	if loc := strings.TrimSpace(in.Location); loc != "" {
		listing.Location = loc
	}

	if err := s.repo.Update(ctx, listing, tags); err != nil {
		return nil, err
	}

	resp := s.toResponse(*listing)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, callerID, id uint) error {
	listing, err := s.ownedListing(ctx, callerID, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	// rows are gone at this point, stored files are best effort
	if s.images != nil {
		for _, image := range listing.Images {
			if err := s.images.Delete(ctx, image.Filename); err != nil {
				logger.Log.WithError(err).WithField("file_id", image.Filename).Warn("failed to delete listing image")
			}
		}
	}
	return nil
}

func (s *Service) AddImage(ctx context.Context, callerID, id uint, filename, mimeType string, content io.Reader) (*Response, error) {
	if s.images == nil {
		return nil, ErrImagesDisabled
	}

	imageType := common.DetectImageType(mimeType)
	if imageType == "" {
		return nil, common.NewValidationError("image", "unsupported image type")
	}

	listing, err := s.ownedListing(ctx, callerID, id)
	if err != nil {
		return nil, err
	}

	stored, err := s.images.Upload(ctx, filename, imageType, listing.ID, callerID, content)
	if err != nil {
		return nil, err
	}

	image := dbmysql.Image{ListingID: listing.ID, Filename: stored.ID}
	if err := s.repo.AddImage(ctx, &image); err != nil {
		if delErr := s.images.Delete(ctx, stored.ID); delErr != nil {
			logger.Log.WithError(delErr).WithField("file_id", stored.ID).Warn("failed to remove orphaned image")
		}
		return nil, err
	}
	listing.Images = append(listing.Images, image)

	resp := s.toResponse(*listing)
	return &resp, nil
}

func (s *Service) ownedListing(ctx context.Context, callerID, id uint) (*dbmysql.Listing, error) {
	listing, err := s.repo.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.UserID != callerID {
		return nil, fmt.Errorf("listing %d belongs to another user: %w", id, common.ErrForbidden)
	}
	return listing, nil
}

func (s *Service) toResponses(listings []dbmysql.Listing) []Response {
	out := make([]Response, 0, len(listings))
	for _, l := range listings {
		out = append(out, s.toResponse(l))
	}
	return out
}

func (s *Service) toResponse(l dbmysql.Listing) Response {
	resp := Response{
		ID:          l.ID,
		UserID:      l.UserID,
		Name:        l.Name,
		Description: l.Description,
		Quality:     l.Quality,
		Location:    l.Location,
		Category:    l.Category,
		Price:       l.Price,
		Tags:        make([]string, 0, len(l.Tags)),
		Images:      make([]string, 0, len(l.Images)),
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
	for _, tag := range l.Tags {
		resp.Tags = append(resp.Tags, tag.TagName)
	}
	for _, image := range l.Images {
		resp.Images = append(resp.Images, s.imageURL(image.Filename))
	}
	return resp
}

func (s *Service) imageURL(filename string) string {
	if strings.HasPrefix(filename, "http://") || strings.HasPrefix(filename, "https://") {
		return filename
	}
	return s.mediaBaseURL + filename
}
