package model

import "gorm.io/gorm"

const (
	AdminTypeMain = "main"
	AdminTypeNo   = "no"
)

// Admin holds the platform owner record. Total is the commission
// running total and must only ever be changed through the ledger's
// atomic increment, never read-modify-write.
type Admin struct {
	gorm.Model
	Email string  `json:"email" gorm:"uniqueIndex;not null"`
	Name  string  `json:"name"`
	Type  string  `json:"type" gorm:"not null"`
	Total float64 `json:"total" gorm:"not null;default:0"`

	// Policy pages served by the public site.
	Terms   string `json:"terms"`
	Privacy string `json:"privacy"`
	Cancel  string `json:"cancel"`
	Refund  string `json:"refund"`
	Billing string `json:"billing"`
}
