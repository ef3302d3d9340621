package ledger

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strconv"
	"time"

	"procur/models"
	"procur/store"

	"github.com/shopspring/decimal"
)

// PlatformMinimumPayoutCents is the hard floor on batch eligibility. A
// requested minimum below it is raised, never lowered.
const PlatformMinimumPayoutCents int64 = 10_000

// PayoutService groups eligible seller balances into payout batches, exports
// them for the operator, and reconciles pending balances once a batch is
// confirmed paid.
type PayoutService struct {
	store  store.Store
	idgen  *IDGenerator
	events EventsEmitter
}

func NewPayoutService(s store.Store, idgen *IDGenerator, events EventsEmitter) *PayoutService {
	return &PayoutService{store: s, idgen: idgen, events: events}
}

type BatchSummary struct {
	BatchID     uint   `json:"batch_id"`
	Reference   string `json:"reference"`
	Status      string `json:"status"`
	TotalItems  int    `json:"total_items"`
	TotalAmount int64  `json:"total_amount"`
}

// CreateBatch reserves every eligible seller's available balance into a new
// batch. Reservation and item insertion happen inside one store transaction,
// so a crash can never leave balance moved without an item or the reverse.
func (s *PayoutService) CreateBatch(minAmountCents int64, notes string) (*BatchSummary, error) {
	if minAmountCents < 0 {
		return nil, ValidationError("minimum amount must not be negative")
	}

	effective := minAmountCents
	if effective < PlatformMinimumPayoutCents {
		effective = PlatformMinimumPayoutCents
	}

	eligible, err := s.store.ListEligibleBalances(effective)
	if err != nil {
		return nil, persistence("failed to list eligible balances", err)
	}
	if len(eligible) == 0 {
		return nil, InsufficientBalanceError("no seller balances eligible for payout")
	}

	// The reference is allocated before the transaction; if the reservation
	// fails the number is burned, never reissued.
	ref, err := s.idgen.NextBatchReference()
	if err != nil {
		return nil, err
	}

	batch := &models.PayoutBatch{
		Reference: ref,
		Status:    models.BatchStatusDraft,
		Notes:     notes,
	}

	err = s.store.Transact(func(tx store.Store) error {
		if err := tx.CreateBatch(batch); err != nil {
			return persistence("failed to create payout batch", err)
		}

		for _, cand := range eligible {
			bal, err := tx.GetBalanceForUpdate(cand.SellerOrgID)
			if err != nil {
				return persistence("failed to lock seller balance", err)
			}
			// Re-check under lock: the balance may have been drained by a
			// concurrent batch since the eligibility read.
			if bal.AvailableAmount < effective {
				continue
			}

			amount := bal.AvailableAmount
			bal.AvailableAmount -= amount
			bal.PendingAmount += amount
			if err := tx.SaveBalance(bal); err != nil {
				return persistence("failed to reserve seller balance", err)
			}

			item := &models.PayoutBatchItem{
				BatchID:     batch.ID,
				SellerOrgID: bal.SellerOrgID,
				Amount:      amount,
				Currency:    bal.Currency,
				Status:      models.BatchItemStatusPending,
			}
			if err := tx.CreateBatchItem(item); err != nil {
				return persistence("failed to create batch item", err)
			}

			batch.TotalItems++
			batch.TotalAmount += amount
		}

		if batch.TotalItems == 0 {
			return InsufficientBalanceError("seller balances changed before they could be reserved")
		}

		batch.Status = models.BatchStatusExported
		if err := tx.SaveBatch(batch); err != nil {
			return persistence("failed to finalize payout batch", err)
		}
		return nil
	})
	if err != nil {
		return nil, wrapStore("payout batch creation failed", err)
	}

	s.emit("payout_batch.created", map[string]any{
		"batch_id":     batch.ID,
		"reference":    batch.Reference,
		"total_items":  batch.TotalItems,
		"total_amount": batch.TotalAmount,
	})

	return summaryOf(batch), nil
}

// ExportBatchCSV renders the batch items as seller_org_id,amount,currency
// rows. Pure projection, no state change.
func (s *PayoutService) ExportBatchCSV(batchID uint) ([]byte, error) {
	batch, err := s.store.GetBatch(batchID)
	if err != nil {
		return nil, wrapStore("payout batch not found", err)
	}

	items, err := s.store.ListBatchItems(batch.ID)
	if err != nil {
		return nil, persistence("failed to list batch items", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"seller_org_id", "amount", "currency"})
	for _, it := range items {
		_ = w.Write([]string{
			strconv.FormatUint(uint64(it.SellerOrgID), 10),
			decimal.New(it.Amount, -2).StringFixed(2),
			it.Currency,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, persistence("failed to render batch csv", err)
	}
	return buf.Bytes(), nil
}

// MarkBatchPaid reconciles a confirmed batch: every pending item flips to
// paid and its seller's pending balance is released by exactly the item
// amount. Re-invoking on a paid batch is a StateConflict, never a second
// decrement.
func (s *PayoutService) MarkBatchPaid(batchID uint, notes string) (*BatchSummary, error) {
	var batch *models.PayoutBatch

	err := s.store.Transact(func(tx store.Store) error {
		b, err := tx.GetBatchForUpdate(batchID)
		if err != nil {
			return wrapStore("payout batch not found", err)
		}
		if b.Status == models.BatchStatusPaid {
			return StateConflictError("payout batch already marked paid")
		}
		if b.Status != models.BatchStatusExported {
			return StateConflictError("payout batch has not been exported")
		}

		items, err := tx.ListBatchItems(b.ID)
		if err != nil {
			return persistence("failed to list batch items", err)
		}

		now := time.Now()
		for i := range items {
			it := &items[i]
			if it.Status != models.BatchItemStatusPending {
				continue
			}
			it.Status = models.BatchItemStatusPaid
			it.PaidAt = &now
			if err := tx.SaveBatchItem(it); err != nil {
				return persistence("failed to update batch item", err)
			}

			bal, err := tx.GetBalanceForUpdate(it.SellerOrgID)
			if err != nil {
				return persistence("failed to lock seller balance", err)
			}
			bal.PendingAmount -= it.Amount
			if bal.PendingAmount < 0 {
				bal.PendingAmount = 0
			}
			if err := tx.SaveBalance(bal); err != nil {
				return persistence("failed to release pending balance", err)
			}
		}

		b.Status = models.BatchStatusPaid
		b.ProcessedAt = &now
		if notes != "" {
			b.Notes = notes
		}
		if err := tx.SaveBatch(b); err != nil {
			return persistence("failed to finalize payout batch", err)
		}
		batch = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit("payout_batch.paid", map[string]any{
		"batch_id":  batch.ID,
		"reference": batch.Reference,
	})

	return summaryOf(batch), nil
}

func (s *PayoutService) ListBatches(f ListFilter) ([]models.PayoutBatch, int64, error) {
	if f.Status != "" && !models.IsValidBatchStatus(f.Status) {
		return nil, 0, ValidationError("unknown batch status")
	}
	f = f.normalized()
	out, total, err := s.store.ListBatches(store.BatchFilter{
		Status: f.Status,
		Limit:  f.Limit,
		Offset: f.Offset,
	})
	if err != nil {
		return nil, 0, persistence("failed to list payout batches", err)
	}
	return out, total, nil
}

// CreditSeller is the upstream order-settlement hook: it adds cleared funds
// to a seller's available balance, creating the balance row on first credit.
func (s *PayoutService) CreditSeller(sellerOrgID uint, amount int64, currency string) (*models.SellerBalance, error) {
	if amount <= 0 {
		return nil, ValidationError("credit amount must be positive")
	}
	if currency == "" {
		currency = "USD"
	}

	var out *models.SellerBalance
	err := s.store.Transact(func(tx store.Store) error {
		bal, err := tx.GetBalanceForUpdate(sellerOrgID)
		if errors.Is(err, store.ErrNotFound) {
			bal = &models.SellerBalance{SellerOrgID: sellerOrgID, Currency: currency}
			if err := tx.CreateBalance(bal); err != nil {
				return persistence("failed to create seller balance", err)
			}
		} else if err != nil {
			return persistence("failed to lock seller balance", err)
		}

		bal.AvailableAmount += amount
		if err := tx.SaveBalance(bal); err != nil {
			return persistence("failed to credit seller balance", err)
		}
		out = bal
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit("seller_balance.credited", map[string]any{
		"seller_org_id": sellerOrgID,
		"amount":        amount,
	})
	return out, nil
}

func (s *PayoutService) emit(eventType string, payload map[string]any) {
	if s.events != nil {
		s.events.Emit(eventType, payload)
	}
}

func summaryOf(b *models.PayoutBatch) *BatchSummary {
	return &BatchSummary{
		BatchID:     b.ID,
		Reference:   b.Reference,
		Status:      b.Status,
		TotalItems:  b.TotalItems,
		TotalAmount: b.TotalAmount,
	}
}
