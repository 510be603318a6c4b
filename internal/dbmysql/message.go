package dbmysql

import (
	"time"
)

type Message struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID uint      `gorm:"not null;index:idx_conversation_created" json:"conversation_id"`
	SenderID       uint      `gorm:"not null;index" json:"sender_id"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index:idx_conversation_created" json:"created_at"`

	Sender User `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE" json:"-"`
}
