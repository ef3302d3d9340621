package models

import "gorm.io/gorm"

// SellerBalance tracks how much a seller organization can be paid out
// (available) and how much is already reserved into an open payout batch
// (pending). Amounts are integer cents.
type SellerBalance struct {
	gorm.Model

	SellerOrgID     uint   `gorm:"uniqueIndex" json:"seller_org_id"`
	AvailableAmount int64  `gorm:"default:0" json:"available_amount"`
	PendingAmount   int64  `gorm:"default:0" json:"pending_amount"`
	Currency        string `gorm:"size:8;default:'USD'" json:"currency"`
}
