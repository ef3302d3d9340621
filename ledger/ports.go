package ledger

import "procur/models"

// BankInfoProvider resolves the opaque bank-detail token for a seller
// organization. An empty token means the seller cannot be paid out yet.
type BankInfoProvider interface {
	Get(sellerOrgID uint) (string, error)
}

// Notifier delivers receipts after a leg settles. Calls are fire-and-forget;
// failures are logged by the caller and never alter committed ledger state.
type Notifier interface {
	SendBuyerReceipt(txn models.Transaction, order models.Order) error
	SendSellerReceipt(txn models.Transaction, order models.Order, recipients []models.OrganizationMember) error
}

// EventsEmitter records a best-effort audit trail. Implementations bound
// their own timeouts and swallow failures.
type EventsEmitter interface {
	Emit(eventType string, payload map[string]any)
}

// ListFilter is the shared paging/status filter for operator listings.
type ListFilter struct {
	Status string
	Limit  int
	Offset int
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func (f ListFilter) normalized() ListFilter {
	if f.Limit <= 0 {
		f.Limit = defaultPageSize
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// wrapStore passes ledger errors through untouched and classifies anything
// else as a persistence failure.
func wrapStore(msg string, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != 0 {
		return err
	}
	return persistence(msg, err)
}
