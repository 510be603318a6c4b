package dbmysql

import (
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Phone        string    `gorm:"size:20;uniqueIndex;not null" json:"phone"`
	PasswordHash string    `gorm:"column:password_hash;size:255;not null" json:"-"`
	AccessLevel  int       `gorm:"default:1;not null" json:"access_level"`
	Location     string    `gorm:"size:255" json:"location"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Listings      []Listing      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Wishlist      *Wishlist      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Notifications []Notification `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
