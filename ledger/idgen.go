package ledger

import (
	"fmt"
	"time"

	"procur/store"
)

const (
	seqTransactionNumber = "transaction_number"
	seqBatchReference    = "payout_batch_reference"
)

// IDGenerator hands out globally unique reference and transaction numbers
// backed by the store's atomic counter. A number is burned once issued; on
// failure the caller retries the whole operation, it never fabricates one
// locally.
type IDGenerator struct {
	store store.Store
}

func NewIDGenerator(s store.Store) *IDGenerator {
	return &IDGenerator{store: s}
}

func (g *IDGenerator) NextTransactionNumber() (string, error) {
	n, err := g.store.NextSequence(seqTransactionNumber)
	if err != nil {
		return "", persistence("failed to allocate transaction number", err)
	}
	return fmt.Sprintf("TXN-%08d", n), nil
}

func (g *IDGenerator) NextBatchReference() (string, error) {
	n, err := g.store.NextSequence(seqBatchReference)
	if err != nil {
		return "", persistence("failed to allocate batch reference", err)
	}
	return fmt.Sprintf("PB-%s-%06d", time.Now().UTC().Format("20060102"), n), nil
}
