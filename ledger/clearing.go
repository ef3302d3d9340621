package ledger

import (
	"encoding/json"
	"time"

	"procur/logger"
	"procur/models"
	"procur/store"
)

// notifyTimeout bounds the fire-and-forget receipt delivery. A slow or dead
// notifier never blocks or rolls back a committed ledger transition.
const notifyTimeout = 10 * time.Second

// ClearingService is the two-leg settlement state machine for a single
// order: buyer -> platform (buyer_settlement) and platform -> seller
// (farmer_payout). The farmer leg cannot execute until the buyer leg has
// completed.
type ClearingService struct {
	store    store.Store
	idgen    *IDGenerator
	bank     BankInfoProvider
	notifier Notifier
	events   EventsEmitter
}

func NewClearingService(s store.Store, idgen *IDGenerator, bank BankInfoProvider, notifier Notifier, events EventsEmitter) *ClearingService {
	return &ClearingService{store: s, idgen: idgen, bank: bank, notifier: notifier, events: events}
}

// OpenForOrder creates both clearing legs for an inspection-approved order.
// All-or-nothing: either both rows exist afterwards or neither does.
func (s *ClearingService) OpenForOrder(orderID uint) (buyer, farmer *models.Transaction, err error) {
	order, err := s.store.GetOrder(orderID)
	if err != nil {
		return nil, nil, wrapStore("order not found", err)
	}
	if order.InspectionStatus != models.InspectionStatusApproved {
		return nil, nil, ValidationError("order has not passed inspection")
	}
	if order.TotalAmount <= 0 {
		return nil, nil, ValidationError("order total must be positive")
	}

	token, err := s.bank.Get(order.SellerOrgID)
	if err != nil {
		return nil, nil, persistence("bank info lookup failed", err)
	}
	if token == "" {
		return nil, nil, ValidationError("seller bank details missing")
	}

	exists, err := s.store.HasTransactionsForOrder(order.ID)
	if err != nil {
		return nil, nil, persistence("failed to check existing clearing transactions", err)
	}
	if exists {
		return nil, nil, StateConflictError("clearing already opened for this order")
	}

	buyerNum, err := s.idgen.NextTransactionNumber()
	if err != nil {
		return nil, nil, err
	}
	farmerNum, err := s.idgen.NextTransactionNumber()
	if err != nil {
		return nil, nil, err
	}

	bankInfo, _ := json.Marshal(map[string]string{"bank_token": token})

	buyer = &models.Transaction{
		TransactionNumber: buyerNum,
		OrderID:           order.ID,
		BuyerOrgID:        order.BuyerOrgID,
		SellerOrgID:       order.SellerOrgID,
		Leg:               models.LegBuyerSettlement,
		Status:            models.TxStatusPending,
		Amount:            order.TotalAmount,
		Currency:          order.Currency,
		PlatformFee:       0, // full pass-through on this path
		Phase:             models.LegBuyerSettlement.InitialPhase(),
	}
	farmer = &models.Transaction{
		TransactionNumber: farmerNum,
		OrderID:           order.ID,
		BuyerOrgID:        order.BuyerOrgID,
		SellerOrgID:       order.SellerOrgID,
		Leg:               models.LegFarmerPayout,
		Status:            models.TxStatusPending,
		Amount:            order.TotalAmount,
		Currency:          order.Currency,
		PlatformFee:       0,
		Phase:             models.LegFarmerPayout.InitialPhase(),
		ExtraInfo:         bankInfo,
	}

	err = s.store.Transact(func(tx store.Store) error {
		// Re-check under the transaction so two concurrent opens cannot both
		// insert a pair.
		exists, err := tx.HasTransactionsForOrder(order.ID)
		if err != nil {
			return persistence("failed to check existing clearing transactions", err)
		}
		if exists {
			return StateConflictError("clearing already opened for this order")
		}
		if err := tx.CreateTransactionPair(buyer, farmer); err != nil {
			return persistence("failed to insert clearing transactions", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.emit("clearing.opened", map[string]any{
		"order_id":      order.ID,
		"buyer_number":  buyer.TransactionNumber,
		"farmer_number": farmer.TransactionNumber,
		"amount":        order.TotalAmount,
	})

	return buyer, farmer, nil
}

// CompleteBuyerSettlement marks the buyer leg settled and advances the
// sibling farmer leg from awaiting_funds to pending_execution. This is the
// gate that prevents paying the seller before the platform has the funds.
func (s *ClearingService) CompleteBuyerSettlement(txID uint, bankReference, proofURL string) (*models.Transaction, error) {
	var txn *models.Transaction

	err := s.store.Transact(func(tx store.Store) error {
		t, err := tx.GetTransactionForUpdate(txID)
		if err != nil {
			return wrapStore("transaction not found", err)
		}
		if t.Leg != models.LegBuyerSettlement {
			return StateConflictError("transaction is not a buyer settlement")
		}
		if t.Status == models.TxStatusCompleted {
			return StateConflictError("buyer settlement already completed")
		}

		now := time.Now()
		t.Status = models.TxStatusCompleted
		t.Phase = models.PhaseCompleted
		t.SettledAt = &now
		t.BankReference = bankReference
		t.ProofURL = proofURL
		if err := tx.SaveTransaction(t); err != nil {
			return persistence("failed to update buyer settlement", err)
		}

		sibling, err := tx.GetLegForUpdate(t.OrderID, models.LegFarmerPayout)
		if err != nil {
			return persistence("farmer payout leg missing for order", err)
		}
		if sibling.Phase == models.PhaseAwaitingFunds {
			sibling.Phase = models.PhasePendingExecution
			if err := tx.SaveTransaction(sibling); err != nil {
				return persistence("failed to advance farmer payout phase", err)
			}
		}

		txn = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	if order, err := s.store.GetOrder(txn.OrderID); err == nil {
		s.sendAsync("buyer receipt", func() error {
			return s.notifier.SendBuyerReceipt(*txn, *order)
		})
	}
	s.emit("clearing.buyer_settled", map[string]any{
		"order_id":           txn.OrderID,
		"transaction_number": txn.TransactionNumber,
		"bank_reference":     bankReference,
	})

	return txn, nil
}

// CompleteFarmerPayout marks the farmer leg settled and closes the order's
// payment status. It refuses to run before the buyer leg has completed.
func (s *ClearingService) CompleteFarmerPayout(txID uint, proofURL string) (*models.Transaction, error) {
	var txn *models.Transaction
	var order *models.Order

	err := s.store.Transact(func(tx store.Store) error {
		t, err := tx.GetTransactionForUpdate(txID)
		if err != nil {
			return wrapStore("transaction not found", err)
		}
		if t.Leg != models.LegFarmerPayout {
			return StateConflictError("transaction is not a farmer payout")
		}
		if t.Status == models.TxStatusCompleted {
			return StateConflictError("farmer payout already completed")
		}
		if t.Phase != models.PhasePendingExecution {
			return StateConflictError("buyer settlement not completed yet")
		}

		now := time.Now()
		t.Status = models.TxStatusCompleted
		t.Phase = models.PhaseCompleted
		t.SettledAt = &now
		t.ProofURL = proofURL
		if err := tx.SaveTransaction(t); err != nil {
			return persistence("failed to update farmer payout", err)
		}

		o, err := tx.GetOrderForUpdate(t.OrderID)
		if err != nil {
			return persistence("order missing for farmer payout", err)
		}
		o.PaymentStatus = models.PaymentStatusPaid
		if err := tx.SaveOrder(o); err != nil {
			return persistence("failed to update order payment status", err)
		}

		payload, _ := json.Marshal(map[string]any{
			"transaction_number": t.TransactionNumber,
			"amount":             t.Amount,
		})
		entry := &models.OrderTimelineEntry{
			OrderID: o.ID,
			Kind:    "payment_completed",
			Message: "Farmer payout settled, order fully paid",
			Payload: payload,
		}
		if err := tx.AppendOrderTimeline(entry); err != nil {
			return persistence("failed to append order timeline", err)
		}

		txn = t
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	recipients, err := s.store.ListActiveMembers(txn.SellerOrgID)
	if err != nil {
		logger.Log.WithError(err).Warn("could not load seller members for receipt")
	} else if len(recipients) > 0 {
		s.sendAsync("seller receipt", func() error {
			return s.notifier.SendSellerReceipt(*txn, *order, recipients)
		})
	}
	s.emit("clearing.farmer_paid", map[string]any{
		"order_id":           txn.OrderID,
		"transaction_number": txn.TransactionNumber,
	})

	return txn, nil
}

func (s *ClearingService) ListBuyerSettlements(f ListFilter) ([]store.TransactionRow, int64, error) {
	return s.listLeg(models.LegBuyerSettlement, f)
}

func (s *ClearingService) ListFarmerPayouts(f ListFilter) ([]store.TransactionRow, int64, error) {
	return s.listLeg(models.LegFarmerPayout, f)
}

func (s *ClearingService) listLeg(leg models.TransactionLeg, f ListFilter) ([]store.TransactionRow, int64, error) {
	status := models.TransactionStatus(f.Status)
	if f.Status != "" && status != models.TxStatusPending && status != models.TxStatusCompleted {
		return nil, 0, ValidationError("unknown transaction status")
	}
	f = f.normalized()
	out, total, err := s.store.ListTransactions(store.TransactionFilter{
		Leg:    leg,
		Status: status,
		Limit:  f.Limit,
		Offset: f.Offset,
	})
	if err != nil {
		return nil, 0, persistence("failed to list clearing transactions", err)
	}
	return out, total, nil
}

// sendAsync runs a notifier call in the background with a bounded wait;
// errors and timeouts are logged and swallowed.
func (s *ClearingService) sendAsync(name string, fn func() error) {
	if s.notifier == nil {
		return
	}
	go func() {
		done := make(chan error, 1)
		go func() { done <- fn() }()
		select {
		case err := <-done:
			if err != nil {
				logger.Log.WithError(err).Warnf("sending %s failed", name)
			}
		case <-time.After(notifyTimeout):
			logger.Log.Warnf("sending %s timed out", name)
		}
	}()
}

func (s *ClearingService) emit(eventType string, payload map[string]any) {
	if s.events != nil {
		s.events.Emit(eventType, payload)
	}
}
