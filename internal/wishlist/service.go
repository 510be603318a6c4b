package wishlist

import (
	"context"
	"strings"

	"gorm.io/datatypes"

	"thriftstore/internal/common"
	"thriftstore/internal/dbmysql"
)

const maxWishlistItems = 50

type Input struct {
	Products         []string `json:"products"`
	ItemDescriptions []string `json:"item_descriptions"`
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get never returns nil: users without a wishlist get empty arrays.
func (s *Service) Get(ctx context.Context, userID uint) (*dbmysql.Wishlist, error) {
	wishlist, err := s.repo.ByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if wishlist == nil {
		wishlist = &dbmysql.Wishlist{UserID: userID}
	}
	wishlist.Normalize()
	return wishlist, nil
}

func (s *Service) Save(ctx context.Context, userID uint, in Input) (*dbmysql.Wishlist, error) {
	products := clean(in.Products)
	descriptions := clean(in.ItemDescriptions)
	if len(products) > maxWishlistItems || len(descriptions) > maxWishlistItems {
		return nil, common.NewValidationError("products", "too many wishlist items")
	}

	wishlist := &dbmysql.Wishlist{
		UserID:           userID,
		Products:         datatypes.JSONSlice[string](products),
		ItemDescriptions: datatypes.JSONSlice[string](descriptions),
		Keywords:         datatypes.JSONSlice[string](KeywordsFor(products, descriptions)),
	}
	if err := s.repo.Upsert(ctx, wishlist); err != nil {
		return nil, err
	}
	wishlist.Normalize()
	return wishlist, nil
}

// ExtractAll maps every item to its keywords.
func (s *Service) ExtractAll(items []string) map[string][]string {
	out := make(map[string][]string, len(items))
	for _, item := range items {
		out[item] = ExtractKeywords(item)
	}
	return out
}

func clean(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
