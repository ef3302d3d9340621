package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TransactionLeg names one side of a two-leg clearing pair.
type TransactionLeg string

const (
	LegBuyerSettlement TransactionLeg = "buyer_settlement"
	LegFarmerPayout    TransactionLeg = "farmer_payout"
)

// TransactionStatus is the coarse lifecycle of a single leg.
type TransactionStatus string

const (
	TxStatusPending   TransactionStatus = "pending"
	TxStatusCompleted TransactionStatus = "completed"
)

// SettlementPhase tracks settlement progress inside a leg beyond
// pending/completed. Each leg only ever moves through its own subset.
type SettlementPhase string

const (
	// buyer_settlement: awaiting_buyer_transfer -> completed
	PhaseAwaitingBuyerTransfer SettlementPhase = "awaiting_buyer_transfer"

	// farmer_payout: awaiting_funds -> pending_execution -> completed
	PhaseAwaitingFunds    SettlementPhase = "awaiting_funds"
	PhasePendingExecution SettlementPhase = "pending_execution"

	PhaseCompleted SettlementPhase = "completed"
)

// InitialPhase returns the phase a freshly opened leg starts in.
func (l TransactionLeg) InitialPhase() SettlementPhase {
	if l == LegFarmerPayout {
		return PhaseAwaitingFunds
	}
	return PhaseAwaitingBuyerTransfer
}

// ValidPhase reports whether p belongs to leg l's lifecycle at all.
func (l TransactionLeg) ValidPhase(p SettlementPhase) bool {
	switch l {
	case LegBuyerSettlement:
		return p == PhaseAwaitingBuyerTransfer || p == PhaseCompleted
	case LegFarmerPayout:
		return p == PhaseAwaitingFunds || p == PhasePendingExecution || p == PhaseCompleted
	default:
		return false
	}
}

// Transaction is one leg of an order's clearing pair. Two rows share an
// order_id: money in from the buyer (buyer_settlement) and money out to the
// seller (farmer_payout). Amounts are integer cents.
type Transaction struct {
	gorm.Model

	TransactionNumber string            `gorm:"uniqueIndex;size:32" json:"transaction_number"`
	OrderID           uint              `gorm:"index:idx_order_leg,unique" json:"order_id"`
	BuyerOrgID        uint              `gorm:"index" json:"buyer_org_id"`
	SellerOrgID       uint              `gorm:"index" json:"seller_org_id"`
	Leg               TransactionLeg    `gorm:"size:32;index;index:idx_order_leg,unique" json:"leg"`
	Status            TransactionStatus `gorm:"size:16;index;default:'pending'" json:"status"`
	Amount            int64             `json:"amount"`
	Currency          string            `gorm:"size:8" json:"currency"`
	PlatformFee       int64             `gorm:"default:0" json:"platform_fee"`
	Phase             SettlementPhase   `gorm:"size:32;index" json:"phase"`
	SettledAt         *time.Time        `json:"settled_at,omitempty"`

	BankReference string         `gorm:"size:128" json:"bank_reference,omitempty"`
	ProofURL      string         `gorm:"size:512" json:"proof_url,omitempty"`
	ExtraInfo     datatypes.JSON `gorm:"type:jsonb" json:"extra_info,omitempty"`
}
