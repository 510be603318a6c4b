//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"
	"gorm.io/gorm"

	"thriftstore/internal/config"
	"thriftstore/internal/listing"
)

// InitializeApplication builds the REST and websocket application. A nil
// images store disables listing image uploads.
func InitializeApplication(cfg *config.Config, db *gorm.DB, images listing.ImageStore) (*Application, error) {
	wire.Build(ProviderSet)
	return &Application{}, nil
}
