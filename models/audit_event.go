package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditEvent is a best-effort trail of ledger transitions. Rows are pruned
// after the retention window, see task.PruneAuditEvents.
type AuditEvent struct {
	gorm.Model

	EventID string         `gorm:"uniqueIndex;size:36" json:"event_id"`
	Type    string         `gorm:"size:64;index" json:"type"`
	Payload datatypes.JSON `gorm:"type:jsonb" json:"payload"`
}
