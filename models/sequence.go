package models

// LedgerSequence backs the atomic reference/transaction number counters.
// Value only ever moves forward; a number handed out is burned even if the
// surrounding operation is retried.
type LedgerSequence struct {
	Name  string `gorm:"primaryKey;size:64" json:"name"`
	Value int64  `json:"value"`
}
