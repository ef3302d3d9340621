package jobs

import (
	"time"

	tasks "procur/task"
)

// StartScheduler runs the maintenance tasks on plain tickers. Nothing here
// touches ledger state beyond the audit trail.
func StartScheduler() {
	prune := time.NewTicker(24 * time.Hour)
	go func() {
		for {
			<-prune.C
			tasks.PruneAuditEvents()
		}
	}()
}
