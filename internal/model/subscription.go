package model

import "gorm.io/gorm"

// Subscription is the ledger record tying a user to their current
// external subscription. At most one record exists per user; the
// engine replaces any prior record when installing a new one.
type Subscription struct {
	gorm.Model
	UserID uint `json:"user_id" gorm:"uniqueIndex;not null"`

	// Method is the payment provider enum value (see pkg/payment).
	Method string `json:"method" gorm:"not null"`

	// SubscriberID is the provider's customer/subscriber identifier,
	// SubscriptionID the provider's subscription identifier. Webhook
	// payloads may carry either, so both are indexed for lookup.
	SubscriberID   string `json:"subscriber_id" gorm:"index"`
	SubscriptionID string `json:"subscription_id" gorm:"index"`

	Plan   string `json:"plan" gorm:"not null"`
	Active bool   `json:"active" gorm:"default:true"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}
