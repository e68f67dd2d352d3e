package model

import "gorm.io/gorm"

// Entitlement tiers. Paid users carry the plan identifier from the
// pricing config as their type instead of one of these constants.
const (
	UserTypeFree    = "free"
	UserTypeForever = "forever"
)

type User struct {
	gorm.Model
	Email    string `json:"email" gorm:"uniqueIndex;not null"`
	Name     string `json:"name" gorm:"not null"`
	Username string `json:"username" gorm:"uniqueIndex;not null"`
	Password string `json:"-" gorm:"not null"`

	// Entitlement tier: "free", "forever" or a paid plan identifier.
	// Mutated only by the reconciliation engine and signup bootstrap.
	Type string `json:"type" gorm:"not null;default:'free'"`

	ResetPasswordToken   *string `json:"-"`
	ResetPasswordExpires *string `json:"-"`
}

// HasPermanentAccess reports whether the user keeps paid entitlement
// independently of billing state.
func (u *User) HasPermanentAccess() bool {
	return u.Type == UserTypeForever
}

func (u *User) GetPublicProfile() map[string]interface{} {
	return map[string]interface{}{
		"id":       u.ID,
		"email":    u.Email,
		"name":     u.Name,
		"username": u.Username,
		"type":     u.Type,
	}
}
