package store

import (
	"errors"

	"procur/models"
)

// ErrNotFound is returned by getters when no row matches. Implementations
// map their driver's not-found sentinel onto it.
var ErrNotFound = errors.New("record not found")

type BatchFilter struct {
	Status string
	Limit  int
	Offset int
}

type TransactionFilter struct {
	Leg    models.TransactionLeg
	Status models.TransactionStatus
	Limit  int
	Offset int
}

// TransactionRow is a transaction joined with organization display names for
// operator listings.
type TransactionRow struct {
	models.Transaction
	BuyerName  string `json:"buyer_name"`
	SellerName string `json:"seller_name"`
}

// Store is the persistence boundary of the ledger. Every multi-row mutation
// in the services runs inside Transact; implementations must guarantee that
// the closure either commits as a whole or leaves no trace, and that
// *ForUpdate getters exclude concurrent writers of the same row until the
// enclosing Transact finishes.
type Store interface {
	Transact(fn func(Store) error) error

	// balances
	GetBalance(sellerOrgID uint) (*models.SellerBalance, error)
	GetBalanceForUpdate(sellerOrgID uint) (*models.SellerBalance, error)
	ListEligibleBalances(minAmount int64) ([]models.SellerBalance, error)
	SaveBalance(b *models.SellerBalance) error
	CreateBalance(b *models.SellerBalance) error

	// payout batches
	CreateBatch(b *models.PayoutBatch) error
	GetBatch(id uint) (*models.PayoutBatch, error)
	GetBatchForUpdate(id uint) (*models.PayoutBatch, error)
	SaveBatch(b *models.PayoutBatch) error
	ListBatches(f BatchFilter) ([]models.PayoutBatch, int64, error)
	CreateBatchItem(item *models.PayoutBatchItem) error
	ListBatchItems(batchID uint) ([]models.PayoutBatchItem, error)
	SaveBatchItem(item *models.PayoutBatchItem) error

	// clearing transactions
	CreateTransactionPair(buyer, farmer *models.Transaction) error
	GetTransaction(id uint) (*models.Transaction, error)
	GetTransactionForUpdate(id uint) (*models.Transaction, error)
	GetLegForUpdate(orderID uint, leg models.TransactionLeg) (*models.Transaction, error)
	HasTransactionsForOrder(orderID uint) (bool, error)
	SaveTransaction(t *models.Transaction) error
	ListTransactions(f TransactionFilter) ([]TransactionRow, int64, error)

	// orders and organizations (owned elsewhere, read/updated here)
	GetOrder(id uint) (*models.Order, error)
	GetOrderForUpdate(id uint) (*models.Order, error)
	SaveOrder(o *models.Order) error
	AppendOrderTimeline(e *models.OrderTimelineEntry) error
	GetOrganization(id uint) (*models.Organization, error)
	ListActiveMembers(orgID uint) ([]models.OrganizationMember, error)

	// sequences
	NextSequence(name string) (int64, error)
}
