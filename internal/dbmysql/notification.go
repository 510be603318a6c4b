package dbmysql

import "time"

// Notification only records that a listing was surfaced to a user. The
// rendered text is built client-side.
type Notification struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ListingID uint      `gorm:"not null;index" json:"listing_id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	Listing Listing `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
