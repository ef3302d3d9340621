package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	InspectionStatusPending  = "pending"
	InspectionStatusApproved = "approved"
	InspectionStatusRejected = "rejected"
)

const (
	PaymentStatusUnpaid = "unpaid"
	PaymentStatusPaid   = "paid"
)

// Order is owned by the marketplace layer; the ledger only reads it and
// flips payment_status once the farmer payout leg settles.
type Order struct {
	gorm.Model

	OrderNumber      string `gorm:"uniqueIndex;size:64" json:"order_number"`
	BuyerOrgID       uint   `gorm:"index" json:"buyer_org_id"`
	SellerOrgID      uint   `gorm:"index" json:"seller_org_id"`
	TotalAmount      int64  `json:"total_amount"`
	Currency         string `gorm:"size:8;default:'USD'" json:"currency"`
	InspectionStatus string `gorm:"size:16;index;default:'pending'" json:"inspection_status"`
	PaymentStatus    string `gorm:"size:16;index;default:'unpaid'" json:"payment_status"`
}

type OrderTimelineEntry struct {
	gorm.Model

	OrderID uint           `gorm:"index" json:"order_id"`
	Kind    string         `gorm:"size:32;index" json:"kind"`
	Message string         `gorm:"size:255" json:"message"`
	Payload datatypes.JSON `gorm:"type:jsonb" json:"payload,omitempty"`
}
