package models

import "time"

// User is an account that owns projects. Subscription fields mirror the
// billing provider's view of the account.
type User struct {
	ID              string     `gorm:"primaryKey;size:36" json:"id"`
	Email           string     `gorm:"size:255;uniqueIndex" json:"email"`
	APIToken        string     `gorm:"column:api_token;size:128;uniqueIndex" json:"-"`
	Subscribed      bool       `json:"subscribed"`
	ProductID       string     `gorm:"size:64" json:"productId"`
	SubscriptionEnd *time.Time `json:"subscriptionEnd"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}
