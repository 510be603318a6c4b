package api

import "time"

type User struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	AccessLevel int       `json:"access_level"`
	Location    string    `json:"location"`
	CreatedAt   time.Time `json:"created_at"`
}

type Listing struct {
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

type ListingInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Quality     string   `json:"quality"`
	Location    string   `json:"location"`
	Category    string   `json:"category"`
	Price       float64  `json:"price"`
	Tags        []string `json:"tags"`
}

type Conversation struct {
	ID        uint      `json:"id"`
	BuyerID   uint      `json:"buyer_id"`
	SellerID  uint      `json:"seller_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Counterpart returns the participant that is not userID.
func (c Conversation) Counterpart(userID uint) uint {
	if c.BuyerID == userID {
		return c.SellerID
	}
	return c.BuyerID
}

type Message struct {
	ID             uint      `json:"id"`
	ConversationID uint      `json:"conversation_id"`
	SenderID       uint      `json:"sender_id"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

type Wishlist struct {
	ID               uint     `json:"id"`
	UserID           uint     `json:"user_id"`
	Products         []string `json:"products"`
	ItemDescriptions []string `json:"item_descriptions"`
	Keywords         []string `json:"keywords"`
}

type WishlistInput struct {
	Products         []string `json:"products"`
	ItemDescriptions []string `json:"item_descriptions"`
}

type SignupForm struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
