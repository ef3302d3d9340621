package tasks

import (
	"time"

	"procur/database"
	"procur/logger"
	"procur/models"
)

const auditRetention = 90 * 24 * time.Hour

// PruneAuditEvents drops audit rows past the retention window. The trail is
// best-effort operational data, not the financial record.
func PruneAuditEvents() {
	cutoff := time.Now().Add(-auditRetention)
	result := database.DB.
		Unscoped().
		Where("created_at < ?", cutoff).
		Delete(&models.AuditEvent{})

	if result.Error != nil {
		logger.Log.WithError(result.Error).Error("failed to prune audit events")
	} else if result.RowsAffected > 0 {
		logger.Log.Infof("pruned %d audit events older than %s", result.RowsAffected, cutoff.Format("2006-01-02"))
	}
}
