package dbmysql

import (
	"time"
)

// Conversation is a buyer/seller thread. One row per pair.
type Conversation struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	BuyerID   uint      `gorm:"not null;uniqueIndex:idx_buyer_seller" json:"buyer_id"`
	SellerID  uint      `gorm:"not null;uniqueIndex:idx_buyer_seller;index" json:"seller_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Buyer    User      `gorm:"foreignKey:BuyerID;constraint:OnDelete:CASCADE" json:"-"`
	Seller   User      `gorm:"foreignKey:SellerID;constraint:OnDelete:CASCADE" json:"-"`
	Messages []Message `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (c *Conversation) HasParticipant(userID uint) bool {
	return c.BuyerID == userID || c.SellerID == userID
}
