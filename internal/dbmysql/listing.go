package dbmysql

import (
	"time"
)

type Listing struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Description string    `gorm:"size:200" json:"description"`
	Quality     string    `gorm:"size:50" json:"quality"`
	Location    string    `gorm:"size:255" json:"location"`
	Category    string    `gorm:"size:100" json:"category"`
	Price       float64   `gorm:"type:decimal(12,2);default:0;not null" json:"price"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Tags   []ListingTag `gorm:"constraint:OnDelete:CASCADE" json:"tags"`
	Images []Image      `gorm:"constraint:OnDelete:CASCADE" json:"images"`
}

type ListingTag struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ListingID uint      `gorm:"not null;index" json:"listing_id"`
	TagName   string    `gorm:"size:50;not null" json:"tag_name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ListingTag) TableName() string {
	return "listing_tag"
}

// Image.Filename is a GridFS file id for uploads made through the API.
type Image struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ListingID uint      `gorm:"not null;index" json:"listing_id"`
	Filename  string    `gorm:"size:255;not null" json:"filename"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
