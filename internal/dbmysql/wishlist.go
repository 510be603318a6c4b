package dbmysql

import (
	"time"

	"gorm.io/datatypes"
)

type Wishlist struct {
	ID               uint                        `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID           uint                        `gorm:"not null;uniqueIndex" json:"user_id"`
	Products         datatypes.JSONSlice[string] `gorm:"type:json" json:"products"`
	ItemDescriptions datatypes.JSONSlice[string] `gorm:"type:json" json:"item_descriptions"`
	Keywords         datatypes.JSONSlice[string] `gorm:"type:json" json:"keywords"`
	CreatedAt        time.Time                   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time                   `gorm:"autoUpdateTime" json:"updated_at"`
}

// Normalize replaces nil arrays with empty ones so they serialise as [].
func (w *Wishlist) Normalize() {
	if w.Products == nil {
		w.Products = datatypes.JSONSlice[string]{}
	}
	if w.ItemDescriptions == nil {
		w.ItemDescriptions = datatypes.JSONSlice[string]{}
	}
	if w.Keywords == nil {
		w.Keywords = datatypes.JSONSlice[string]{}
	}
}
