package store

import (
	"sort"
	"sync"
	"time"

	"procur/models"
)

// Memory is an in-process Store used by tests and local development. It
// honors the same contract as the postgres store: Transact clones the state,
// runs the closure against the clone, and swaps it in only on success, so a
// failed closure leaves no trace. A single mutex serializes writers.
type Memory struct {
	mu    sync.Mutex
	state *memState
}

func NewMemory() *Memory {
	return &Memory{state: newMemState()}
}

func (s *Memory) Transact(fn func(Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := s.state.clone()
	if err := fn(&memTx{st: clone}); err != nil {
		return err
	}
	s.state = clone
	return nil
}

// memTx is the view handed to a Transact closure. It operates on the cloned
// state directly; the owning Memory already holds the lock.
type memTx struct {
	st *memState
}

// Transact on an open transaction just extends the current scope.
func (t *memTx) Transact(fn func(Store) error) error {
	return fn(t)
}

type memState struct {
	nextID    uint
	balances  map[uint]models.SellerBalance // keyed by seller_org_id
	batches   map[uint]models.PayoutBatch
	items     map[uint]models.PayoutBatchItem
	txns      map[uint]models.Transaction
	orders    map[uint]models.Order
	timeline  []models.OrderTimelineEntry
	orgs      map[uint]models.Organization
	members   map[uint]models.OrganizationMember
	sequences map[string]int64
}

func newMemState() *memState {
	return &memState{
		nextID:    1,
		balances:  make(map[uint]models.SellerBalance),
		batches:   make(map[uint]models.PayoutBatch),
		items:     make(map[uint]models.PayoutBatchItem),
		txns:      make(map[uint]models.Transaction),
		orders:    make(map[uint]models.Order),
		orgs:      make(map[uint]models.Organization),
		members:   make(map[uint]models.OrganizationMember),
		sequences: make(map[string]int64),
	}
}

func (st *memState) clone() *memState {
	c := newMemState()
	c.nextID = st.nextID
	for k, v := range st.balances {
		c.balances[k] = v
	}
	for k, v := range st.batches {
		c.batches[k] = v
	}
	for k, v := range st.items {
		c.items[k] = v
	}
	for k, v := range st.txns {
		c.txns[k] = v
	}
	for k, v := range st.orders {
		c.orders[k] = v
	}
	c.timeline = append(c.timeline, st.timeline...)
	for k, v := range st.orgs {
		c.orgs[k] = v
	}
	for k, v := range st.members {
		c.members[k] = v
	}
	for k, v := range st.sequences {
		c.sequences[k] = v
	}
	return c
}

func (st *memState) allocID() uint {
	id := st.nextID
	st.nextID++
	return id
}

func paginate[T any](in []T, limit, offset int) []T {
	if offset >= len(in) {
		return nil
	}
	in = in[offset:]
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}

// ----- balances -----

func (st *memState) getBalance(sellerOrgID uint) (*models.SellerBalance, error) {
	b, ok := st.balances[sellerOrgID]
	if !ok {
		return nil, ErrNotFound
	}
	out := b
	return &out, nil
}

func (st *memState) listEligibleBalances(minAmount int64) ([]models.SellerBalance, error) {
	var out []models.SellerBalance
	for _, b := range st.balances {
		if b.AvailableAmount >= minAmount {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SellerOrgID < out[j].SellerOrgID })
	return out, nil
}

func (st *memState) saveBalance(b *models.SellerBalance) error {
	if b.ID == 0 {
		b.ID = st.allocID()
		b.CreatedAt = time.Now()
	}
	b.UpdatedAt = time.Now()
	st.balances[b.SellerOrgID] = *b
	return nil
}

// ----- payout batches -----

func (st *memState) createBatch(b *models.PayoutBatch) error {
	b.ID = st.allocID()
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	st.batches[b.ID] = *b
	return nil
}

func (st *memState) getBatch(id uint) (*models.PayoutBatch, error) {
	b, ok := st.batches[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := b
	return &out, nil
}

func (st *memState) saveBatch(b *models.PayoutBatch) error {
	b.UpdatedAt = time.Now()
	st.batches[b.ID] = *b
	return nil
}

func (st *memState) listBatches(f BatchFilter) ([]models.PayoutBatch, int64, error) {
	var all []models.PayoutBatch
	for _, b := range st.batches {
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		all = append(all, b)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return paginate(all, f.Limit, f.Offset), int64(len(all)), nil
}

func (st *memState) createBatchItem(item *models.PayoutBatchItem) error {
	item.ID = st.allocID()
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt
	st.items[item.ID] = *item
	return nil
}

func (st *memState) listBatchItems(batchID uint) ([]models.PayoutBatchItem, error) {
	var out []models.PayoutBatchItem
	for _, it := range st.items {
		if it.BatchID == batchID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (st *memState) saveBatchItem(item *models.PayoutBatchItem) error {
	item.UpdatedAt = time.Now()
	st.items[item.ID] = *item
	return nil
}

// ----- clearing transactions -----

func (st *memState) createTransactionPair(buyer, farmer *models.Transaction) error {
	for _, t := range []*models.Transaction{buyer, farmer} {
		t.ID = st.allocID()
		t.CreatedAt = time.Now()
		t.UpdatedAt = t.CreatedAt
		st.txns[t.ID] = *t
	}
	return nil
}

func (st *memState) getTransaction(id uint) (*models.Transaction, error) {
	t, ok := st.txns[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := t
	return &out, nil
}

func (st *memState) getLeg(orderID uint, leg models.TransactionLeg) (*models.Transaction, error) {
	for _, t := range st.txns {
		if t.OrderID == orderID && t.Leg == leg {
			out := t
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (st *memState) hasTransactionsForOrder(orderID uint) (bool, error) {
	for _, t := range st.txns {
		if t.OrderID == orderID {
			return true, nil
		}
	}
	return false, nil
}

func (st *memState) saveTransaction(t *models.Transaction) error {
	t.UpdatedAt = time.Now()
	st.txns[t.ID] = *t
	return nil
}

func (st *memState) listTransactions(f TransactionFilter) ([]TransactionRow, int64, error) {
	var all []TransactionRow
	for _, t := range st.txns {
		if t.Leg != f.Leg {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		row := TransactionRow{Transaction: t}
		if org, ok := st.orgs[t.BuyerOrgID]; ok {
			row.BuyerName = org.Name
		}
		if org, ok := st.orgs[t.SellerOrgID]; ok {
			row.SellerName = org.Name
		}
		all = append(all, row)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return paginate(all, f.Limit, f.Offset), int64(len(all)), nil
}

// ----- orders and organizations -----

func (st *memState) getOrder(id uint) (*models.Order, error) {
	o, ok := st.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := o
	return &out, nil
}

func (st *memState) saveOrder(o *models.Order) error {
	if o.ID == 0 {
		o.ID = st.allocID()
		o.CreatedAt = time.Now()
	}
	o.UpdatedAt = time.Now()
	st.orders[o.ID] = *o
	return nil
}

func (st *memState) appendOrderTimeline(e *models.OrderTimelineEntry) error {
	e.ID = st.allocID()
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	st.timeline = append(st.timeline, *e)
	return nil
}

func (st *memState) getOrganization(id uint) (*models.Organization, error) {
	org, ok := st.orgs[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := org
	return &out, nil
}

func (st *memState) listActiveMembers(orgID uint) ([]models.OrganizationMember, error) {
	var out []models.OrganizationMember
	for _, m := range st.members {
		if m.OrgID == orgID && m.IsActive {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (st *memState) nextSequence(name string) (int64, error) {
	st.sequences[name]++
	return st.sequences[name], nil
}

// ----- locked outer wrappers -----

func (s *Memory) locked() func() {
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Memory) GetBalance(id uint) (*models.SellerBalance, error) {
	defer s.locked()()
	return s.state.getBalance(id)
}
func (s *Memory) GetBalanceForUpdate(id uint) (*models.SellerBalance, error) {
	defer s.locked()()
	return s.state.getBalance(id)
}
func (s *Memory) ListEligibleBalances(min int64) ([]models.SellerBalance, error) {
	defer s.locked()()
	return s.state.listEligibleBalances(min)
}
func (s *Memory) SaveBalance(b *models.SellerBalance) error {
	defer s.locked()()
	return s.state.saveBalance(b)
}
func (s *Memory) CreateBalance(b *models.SellerBalance) error {
	defer s.locked()()
	return s.state.saveBalance(b)
}

func (s *Memory) CreateBatch(b *models.PayoutBatch) error {
	defer s.locked()()
	return s.state.createBatch(b)
}
func (s *Memory) GetBatch(id uint) (*models.PayoutBatch, error) {
	defer s.locked()()
	return s.state.getBatch(id)
}
func (s *Memory) GetBatchForUpdate(id uint) (*models.PayoutBatch, error) {
	defer s.locked()()
	return s.state.getBatch(id)
}
func (s *Memory) SaveBatch(b *models.PayoutBatch) error {
	defer s.locked()()
	return s.state.saveBatch(b)
}
func (s *Memory) ListBatches(f BatchFilter) ([]models.PayoutBatch, int64, error) {
	defer s.locked()()
	return s.state.listBatches(f)
}
func (s *Memory) CreateBatchItem(i *models.PayoutBatchItem) error {
	defer s.locked()()
	return s.state.createBatchItem(i)
}
func (s *Memory) ListBatchItems(batchID uint) ([]models.PayoutBatchItem, error) {
	defer s.locked()()
	return s.state.listBatchItems(batchID)
}
func (s *Memory) SaveBatchItem(i *models.PayoutBatchItem) error {
	defer s.locked()()
	return s.state.saveBatchItem(i)
}

func (s *Memory) CreateTransactionPair(buyer, farmer *models.Transaction) error {
	defer s.locked()()
	return s.state.createTransactionPair(buyer, farmer)
}
func (s *Memory) GetTransaction(id uint) (*models.Transaction, error) {
	defer s.locked()()
	return s.state.getTransaction(id)
}
func (s *Memory) GetTransactionForUpdate(id uint) (*models.Transaction, error) {
	defer s.locked()()
	return s.state.getTransaction(id)
}
func (s *Memory) GetLegForUpdate(orderID uint, leg models.TransactionLeg) (*models.Transaction, error) {
	defer s.locked()()
	return s.state.getLeg(orderID, leg)
}
func (s *Memory) HasTransactionsForOrder(orderID uint) (bool, error) {
	defer s.locked()()
	return s.state.hasTransactionsForOrder(orderID)
}
func (s *Memory) SaveTransaction(t *models.Transaction) error {
	defer s.locked()()
	return s.state.saveTransaction(t)
}
func (s *Memory) ListTransactions(f TransactionFilter) ([]TransactionRow, int64, error) {
	defer s.locked()()
	return s.state.listTransactions(f)
}

func (s *Memory) GetOrder(id uint) (*models.Order, error) {
	defer s.locked()()
	return s.state.getOrder(id)
}
func (s *Memory) GetOrderForUpdate(id uint) (*models.Order, error) {
	defer s.locked()()
	return s.state.getOrder(id)
}
func (s *Memory) SaveOrder(o *models.Order) error {
	defer s.locked()()
	return s.state.saveOrder(o)
}
func (s *Memory) AppendOrderTimeline(e *models.OrderTimelineEntry) error {
	defer s.locked()()
	return s.state.appendOrderTimeline(e)
}
func (s *Memory) GetOrganization(id uint) (*models.Organization, error) {
	defer s.locked()()
	return s.state.getOrganization(id)
}
func (s *Memory) ListActiveMembers(orgID uint) ([]models.OrganizationMember, error) {
	defer s.locked()()
	return s.state.listActiveMembers(orgID)
}

func (s *Memory) NextSequence(name string) (int64, error) {
	defer s.locked()()
	return s.state.nextSequence(name)
}

// SaveOrganization and SaveMember seed collaborator rows for tests and local
// development; the ledger itself never writes them.
func (s *Memory) SaveOrganization(org *models.Organization) error {
	defer s.locked()()
	if org.ID == 0 {
		org.ID = s.state.allocID()
	}
	s.state.orgs[org.ID] = *org
	return nil
}

func (s *Memory) SaveMember(m *models.OrganizationMember) error {
	defer s.locked()()
	if m.ID == 0 {
		m.ID = s.state.allocID()
	}
	s.state.members[m.ID] = *m
	return nil
}

// OrderTimeline returns the appended entries for an order; test helper.
func (s *Memory) OrderTimeline(orderID uint) []models.OrderTimelineEntry {
	defer s.locked()()
	var out []models.OrderTimelineEntry
	for _, e := range s.state.timeline {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out
}

// ----- memTx delegation -----

func (t *memTx) GetBalance(id uint) (*models.SellerBalance, error) { return t.st.getBalance(id) }
func (t *memTx) GetBalanceForUpdate(id uint) (*models.SellerBalance, error) {
	return t.st.getBalance(id)
}
func (t *memTx) ListEligibleBalances(min int64) ([]models.SellerBalance, error) {
	return t.st.listEligibleBalances(min)
}
func (t *memTx) SaveBalance(b *models.SellerBalance) error   { return t.st.saveBalance(b) }
func (t *memTx) CreateBalance(b *models.SellerBalance) error { return t.st.saveBalance(b) }

func (t *memTx) CreateBatch(b *models.PayoutBatch) error          { return t.st.createBatch(b) }
func (t *memTx) GetBatch(id uint) (*models.PayoutBatch, error)    { return t.st.getBatch(id) }
func (t *memTx) GetBatchForUpdate(id uint) (*models.PayoutBatch, error) {
	return t.st.getBatch(id)
}
func (t *memTx) SaveBatch(b *models.PayoutBatch) error { return t.st.saveBatch(b) }
func (t *memTx) ListBatches(f BatchFilter) ([]models.PayoutBatch, int64, error) {
	return t.st.listBatches(f)
}
func (t *memTx) CreateBatchItem(i *models.PayoutBatchItem) error { return t.st.createBatchItem(i) }
func (t *memTx) ListBatchItems(batchID uint) ([]models.PayoutBatchItem, error) {
	return t.st.listBatchItems(batchID)
}
func (t *memTx) SaveBatchItem(i *models.PayoutBatchItem) error { return t.st.saveBatchItem(i) }

func (t *memTx) CreateTransactionPair(buyer, farmer *models.Transaction) error {
	return t.st.createTransactionPair(buyer, farmer)
}
func (t *memTx) GetTransaction(id uint) (*models.Transaction, error) {
	return t.st.getTransaction(id)
}
func (t *memTx) GetTransactionForUpdate(id uint) (*models.Transaction, error) {
	return t.st.getTransaction(id)
}
func (t *memTx) GetLegForUpdate(orderID uint, leg models.TransactionLeg) (*models.Transaction, error) {
	return t.st.getLeg(orderID, leg)
}
func (t *memTx) HasTransactionsForOrder(orderID uint) (bool, error) {
	return t.st.hasTransactionsForOrder(orderID)
}
func (t *memTx) SaveTransaction(x *models.Transaction) error { return t.st.saveTransaction(x) }
func (t *memTx) ListTransactions(f TransactionFilter) ([]TransactionRow, int64, error) {
	return t.st.listTransactions(f)
}

func (t *memTx) GetOrder(id uint) (*models.Order, error)          { return t.st.getOrder(id) }
func (t *memTx) GetOrderForUpdate(id uint) (*models.Order, error) { return t.st.getOrder(id) }
func (t *memTx) SaveOrder(o *models.Order) error                  { return t.st.saveOrder(o) }
func (t *memTx) AppendOrderTimeline(e *models.OrderTimelineEntry) error {
	return t.st.appendOrderTimeline(e)
}
func (t *memTx) GetOrganization(id uint) (*models.Organization, error) {
	return t.st.getOrganization(id)
}
func (t *memTx) ListActiveMembers(orgID uint) ([]models.OrganizationMember, error) {
	return t.st.listActiveMembers(orgID)
}

func (t *memTx) NextSequence(name string) (int64, error) { return t.st.nextSequence(name) }
