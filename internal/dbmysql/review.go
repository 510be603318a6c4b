package dbmysql

import "time"

// Review and Transaction are written by the schema but not served by any
// endpoint yet.
type Review struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	ListingID   uint      `gorm:"not null;index" json:"listing_id"`
	Description string    `gorm:"type:text" json:"description"`
	Rating      int       `gorm:"not null;check:rating >= 1 AND rating <= 5" json:"rating"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`

	User    User    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Listing Listing `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

type Transaction struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ListingID uint      `gorm:"not null;index" json:"listing_id"`
	BuyerID   uint      `gorm:"not null;index" json:"buyer_id"`
	SellerID  uint      `gorm:"not null;index" json:"seller_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	Listing Listing `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Buyer   User    `gorm:"foreignKey:BuyerID;constraint:OnDelete:CASCADE" json:"-"`
	Seller  User    `gorm:"foreignKey:SellerID;constraint:OnDelete:CASCADE" json:"-"`
}
