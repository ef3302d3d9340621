package store

import (
	"errors"

	"procur/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Gorm is the postgres-backed Store. Transact maps onto a database
// transaction; *ForUpdate getters take row locks so concurrent operators
// serialize on the balances and legs they touch.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func (s *Gorm) Transact(fn func(Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Gorm{db: tx})
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// ----- balances -----

func (s *Gorm) GetBalance(sellerOrgID uint) (*models.SellerBalance, error) {
	var b models.SellerBalance
	if err := s.db.Where("seller_org_id = ?", sellerOrgID).First(&b).Error; err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

func (s *Gorm) GetBalanceForUpdate(sellerOrgID uint) (*models.SellerBalance, error) {
	var b models.SellerBalance
	err := s.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("seller_org_id = ?", sellerOrgID).First(&b).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

func (s *Gorm) ListEligibleBalances(minAmount int64) ([]models.SellerBalance, error) {
	var out []models.SellerBalance
	err := s.db.Where("available_amount >= ?", minAmount).
		Order("seller_org_id asc").Find(&out).Error
	return out, err
}

func (s *Gorm) SaveBalance(b *models.SellerBalance) error {
	return s.db.Save(b).Error
}

func (s *Gorm) CreateBalance(b *models.SellerBalance) error {
	return s.db.Create(b).Error
}

// ----- payout batches -----

func (s *Gorm) CreateBatch(b *models.PayoutBatch) error {
	return s.db.Create(b).Error
}

func (s *Gorm) GetBatch(id uint) (*models.PayoutBatch, error) {
	var b models.PayoutBatch
	if err := s.db.First(&b, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

func (s *Gorm) GetBatchForUpdate(id uint) (*models.PayoutBatch, error) {
	var b models.PayoutBatch
	err := s.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&b, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

func (s *Gorm) SaveBatch(b *models.PayoutBatch) error {
	return s.db.Save(b).Error
}

func (s *Gorm) ListBatches(f BatchFilter) ([]models.PayoutBatch, int64, error) {
	q := s.db.Model(&models.PayoutBatch{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []models.PayoutBatch
	err := q.Order("id desc").Limit(f.Limit).Offset(f.Offset).Find(&out).Error
	return out, total, err
}

func (s *Gorm) CreateBatchItem(item *models.PayoutBatchItem) error {
	return s.db.Create(item).Error
}

func (s *Gorm) ListBatchItems(batchID uint) ([]models.PayoutBatchItem, error) {
	var out []models.PayoutBatchItem
	err := s.db.Where("batch_id = ?", batchID).Order("id asc").Find(&out).Error
	return out, err
}

func (s *Gorm) SaveBatchItem(item *models.PayoutBatchItem) error {
	return s.db.Save(item).Error
}

// ----- clearing transactions -----

func (s *Gorm) CreateTransactionPair(buyer, farmer *models.Transaction) error {
	if err := s.db.Create(buyer).Error; err != nil {
		return err
	}
	return s.db.Create(farmer).Error
}

func (s *Gorm) GetTransaction(id uint) (*models.Transaction, error) {
	var t models.Transaction
	if err := s.db.First(&t, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (s *Gorm) GetTransactionForUpdate(id uint) (*models.Transaction, error) {
	var t models.Transaction
	err := s.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&t, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (s *Gorm) GetLegForUpdate(orderID uint, leg models.TransactionLeg) (*models.Transaction, error) {
	var t models.Transaction
	err := s.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_id = ? AND leg = ?", orderID, leg).First(&t).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

func (s *Gorm) HasTransactionsForOrder(orderID uint) (bool, error) {
	var n int64
	err := s.db.Model(&models.Transaction{}).Where("order_id = ?", orderID).Count(&n).Error
	return n > 0, err
}

func (s *Gorm) SaveTransaction(t *models.Transaction) error {
	return s.db.Save(t).Error
}

func (s *Gorm) ListTransactions(f TransactionFilter) ([]TransactionRow, int64, error) {
	q := s.db.Model(&models.Transaction{}).Where("transactions.leg = ?", f.Leg)
	if f.Status != "" {
		q = q.Where("transactions.status = ?", f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []TransactionRow
	err := q.
		Select("transactions.*, buyers.name AS buyer_name, sellers.name AS seller_name").
		Joins("LEFT JOIN organizations buyers ON buyers.id = transactions.buyer_org_id").
		Joins("LEFT JOIN organizations sellers ON sellers.id = transactions.seller_org_id").
		Order("transactions.id desc").
		Limit(f.Limit).Offset(f.Offset).
		Scan(&out).Error
	return out, total, err
}

// ----- orders and organizations -----

func (s *Gorm) GetOrder(id uint) (*models.Order, error) {
	var o models.Order
	if err := s.db.First(&o, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

func (s *Gorm) GetOrderForUpdate(id uint) (*models.Order, error) {
	var o models.Order
	err := s.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&o, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

func (s *Gorm) SaveOrder(o *models.Order) error {
	return s.db.Save(o).Error
}

func (s *Gorm) AppendOrderTimeline(e *models.OrderTimelineEntry) error {
	return s.db.Create(e).Error
}

func (s *Gorm) GetOrganization(id uint) (*models.Organization, error) {
	var org models.Organization
	if err := s.db.First(&org, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &org, nil
}

func (s *Gorm) ListActiveMembers(orgID uint) ([]models.OrganizationMember, error) {
	var out []models.OrganizationMember
	err := s.db.Where("org_id = ? AND is_active = true", orgID).Find(&out).Error
	return out, err
}

// ----- sequences -----

// NextSequence increments the named counter and returns the new value in a
// single statement, so concurrent callers never see the same number.
func (s *Gorm) NextSequence(name string) (int64, error) {
	var v int64
	err := s.db.Raw(`
		INSERT INTO ledger_sequences (name, value) VALUES (?, 1)
		ON CONFLICT (name) DO UPDATE SET value = ledger_sequences.value + 1
		RETURNING value`, name).Scan(&v).Error
	if err != nil {
		return 0, err
	}
	return v, nil
}
