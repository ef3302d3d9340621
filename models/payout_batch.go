package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	BatchStatusDraft    = "draft"
	BatchStatusExported = "exported"
	BatchStatusPaid     = "paid"
)

const (
	BatchItemStatusPending = "pending"
	BatchItemStatusPaid    = "paid"
)

func IsValidBatchStatus(status string) bool {
	switch status {
	case BatchStatusDraft, BatchStatusExported, BatchStatusPaid:
		return true
	default:
		return false
	}
}

type PayoutBatch struct {
	gorm.Model

	Reference   string     `gorm:"uniqueIndex;size:64" json:"reference"`
	Status      string     `gorm:"size:16;index;default:'draft'" json:"status"`
	TotalItems  int        `gorm:"default:0" json:"total_items"`
	TotalAmount int64      `gorm:"default:0" json:"total_amount"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	Notes       string     `gorm:"size:255" json:"notes"`

	Items []PayoutBatchItem `gorm:"foreignKey:BatchID" json:"items,omitempty"`
}

type PayoutBatchItem struct {
	gorm.Model

	BatchID     uint       `gorm:"index" json:"batch_id"`
	SellerOrgID uint       `gorm:"index" json:"seller_org_id"`
	Amount      int64      `json:"amount"`
	Currency    string     `gorm:"size:8" json:"currency"`
	Status      string     `gorm:"size:16;index;default:'pending'" json:"status"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
}
