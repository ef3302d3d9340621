package ledger_test

import (
	"strings"
	"sync"
	"testing"

	"procur/ledger"
	"procur/models"
	"procur/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEvents struct {
	mu    sync.Mutex
	types []string
}

func (f *fakeEvents) Emit(eventType string, payload map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.types = append(f.types, eventType)
}

func (f *fakeEvents) seen(eventType string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.types {
		if t == eventType {
			return true
		}
	}
	return false
}

func newPayoutService(t *testing.T) (*ledger.PayoutService, *store.Memory, *fakeEvents) {
	t.Helper()
	mem := store.NewMemory()
	events := &fakeEvents{}
	svc := ledger.NewPayoutService(mem, ledger.NewIDGenerator(mem), events)
	return svc, mem, events
}

func seedBalance(t *testing.T, mem *store.Memory, sellerOrgID uint, available int64) {
	t.Helper()
	require.NoError(t, mem.SaveBalance(&models.SellerBalance{
		SellerOrgID:     sellerOrgID,
		AvailableAmount: available,
		Currency:        "USD",
	}))
}

func TestCreateBatchReservesFullAvailable(t *testing.T) {
	svc, mem, events := newPayoutService(t)
	seedBalance(t, mem, 7, 15000)

	summary, err := svc.CreateBatch(0, "")
	require.NoError(t, err)

	assert.Equal(t, 1, summary.TotalItems)
	assert.Equal(t, int64(15000), summary.TotalAmount)
	assert.Equal(t, models.BatchStatusExported, summary.Status)
	assert.True(t, strings.HasPrefix(summary.Reference, "PB-"))

	bal, err := mem.GetBalance(7)
	require.NoError(t, err)
	assert.Equal(t, int64(0), bal.AvailableAmount)
	assert.Equal(t, int64(15000), bal.PendingAmount)

	items, err := mem.ListBatchItems(summary.BatchID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(15000), items[0].Amount)
	assert.Equal(t, models.BatchItemStatusPending, items[0].Status)

	assert.True(t, events.seen("payout_batch.created"))
}

func TestCreateBatchEnforcesPlatformFloor(t *testing.T) {
	svc, mem, _ := newPayoutService(t)
	seedBalance(t, mem, 1, 9999) // just below the 10000 cent floor
	seedBalance(t, mem, 2, 15000)

	summary, err := svc.CreateBatch(0, "")
	require.NoError(t, err)

	assert.Equal(t, 1, summary.TotalItems)
	assert.Equal(t, int64(15000), summary.TotalAmount)

	// The sub-floor seller keeps its balance untouched.
	bal, err := mem.GetBalance(1)
	require.NoError(t, err)
	assert.Equal(t, int64(9999), bal.AvailableAmount)
	assert.Equal(t, int64(0), bal.PendingAmount)
}

func TestCreateBatchNothingEligible(t *testing.T) {
	svc, mem, _ := newPayoutService(t)
	seedBalance(t, mem, 1, 500)

	_, err := svc.CreateBatch(0, "")
	require.Error(t, err)
	assert.True(t, ledger.IsKind(err, ledger.KindInsufficientBalance))

	// Nothing may be left half-written.
	batches, total, err := mem.ListBatches(store.BatchFilter{Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, batches)
}

func TestCreateBatchRejectsNegativeMinimum(t *testing.T) {
	svc, _, _ := newPayoutService(t)

	_, err := svc.CreateBatch(-1, "")
	require.Error(t, err)
	assert.True(t, ledger.IsKind(err, ledger.KindValidation))
}

func TestMarkBatchPaidReleasesPendingOnce(t *testing.T) {
	svc, mem, events := newPayoutService(t)
	seedBalance(t, mem, 7, 15000)

	summary, err := svc.CreateBatch(0, "")
	require.NoError(t, err)

	paid, err := svc.MarkBatchPaid(summary.BatchID, "wire sent")
	require.NoError(t, err)
	assert.Equal(t, models.BatchStatusPaid, paid.Status)

	bal, err := mem.GetBalance(7)
	require.NoError(t, err)
	assert.Equal(t, int64(0), bal.PendingAmount)
	assert.Equal(t, int64(0), bal.AvailableAmount)

	items, err := mem.ListBatchItems(summary.BatchID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.BatchItemStatusPaid, items[0].Status)
	assert.NotNil(t, items[0].PaidAt)

	batch, err := mem.GetBatch(summary.BatchID)
	require.NoError(t, err)
	assert.NotNil(t, batch.ProcessedAt)
	assert.Equal(t, "wire sent", batch.Notes)

	// Second invocation is a conflict and must not decrement again.
	_, err = svc.MarkBatchPaid(summary.BatchID, "")
	require.Error(t, err)
	assert.True(t, ledger.IsKind(err, ledger.KindStateConflict))

	bal, err = mem.GetBalance(7)
	require.NoError(t, err)
	assert.Equal(t, int64(0), bal.PendingAmount)

	assert.True(t, events.seen("payout_batch.paid"))
}

func TestMarkBatchPaidUnknownBatch(t *testing.T) {
	svc, _, _ := newPayoutService(t)

	_, err := svc.MarkBatchPaid(999, "")
	require.Error(t, err)
	assert.True(t, ledger.IsKind(err, ledger.KindNotFound))
}

func TestConservationAcrossBatchLifecycle(t *testing.T) {
	svc, mem, _ := newPayoutService(t)

	_, err := svc.CreditSeller(3, 20000, "USD")
	require.NoError(t, err)
	_, err = svc.CreditSeller(3, 5000, "USD")
	require.NoError(t, err)

	bal, err := mem.GetBalance(3)
	require.NoError(t, err)
	assert.Equal(t, int64(25000), bal.AvailableAmount+bal.PendingAmount)

	summary, err := svc.CreateBatch(0, "")
	require.NoError(t, err)

	// Reservation moves funds, never duplicates them.
	bal, err = mem.GetBalance(3)
	require.NoError(t, err)
	assert.Equal(t, int64(25000), bal.AvailableAmount+bal.PendingAmount)

	_, err = svc.MarkBatchPaid(summary.BatchID, "")
	require.NoError(t, err)

	// Reconciliation drains exactly what was reserved.
	bal, err = mem.GetBalance(3)
	require.NoError(t, err)
	assert.Equal(t, int64(0), bal.AvailableAmount+bal.PendingAmount)
}

func TestExportBatchCSV(t *testing.T) {
	svc, mem, _ := newPayoutService(t)
	seedBalance(t, mem, 4, 12345)

	summary, err := svc.CreateBatch(0, "")
	require.NoError(t, err)

	out, err := svc.ExportBatchCSV(summary.BatchID)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "seller_org_id,amount,currency", lines[0])
	assert.Equal(t, "4,123.45,USD", lines[1])

	// Export is a pure projection.
	bal, err := mem.GetBalance(4)
	require.NoError(t, err)
	assert.Equal(t, int64(12345), bal.PendingAmount)
}

func TestExportBatchCSVUnknownBatch(t *testing.T) {
	svc, _, _ := newPayoutService(t)

	_, err := svc.ExportBatchCSV(42)
	require.Error(t, err)
	assert.True(t, ledger.IsKind(err, ledger.KindNotFound))
}

func TestListBatchesFilterAndPaging(t *testing.T) {
	svc, mem, _ := newPayoutService(t)
	seedBalance(t, mem, 1, 20000)

	first, err := svc.CreateBatch(0, "")
	require.NoError(t, err)
	_, err = svc.MarkBatchPaid(first.BatchID, "")
	require.NoError(t, err)

	seedBalance(t, mem, 2, 30000)
	_, err = svc.CreateBatch(0, "")
	require.NoError(t, err)

	paid, total, err := svc.ListBatches(ledger.ListFilter{Status: models.BatchStatusPaid})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, paid, 1)
	assert.Equal(t, first.BatchID, paid[0].ID)

	all, total, err := svc.ListBatches(ledger.ListFilter{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 1)

	_, _, err = svc.ListBatches(ledger.ListFilter{Status: "bogus"})
	require.Error(t, err)
	assert.True(t, ledger.IsKind(err, ledger.KindValidation))
}

func TestConcurrentCreateBatchNeverDoubleReserves(t *testing.T) {
	svc, mem, _ := newPayoutService(t)
	seedBalance(t, mem, 9, 15000)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateBatch(0, "")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded int
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, ledger.IsKind(err, ledger.KindInsufficientBalance))
		}
	}
	assert.Equal(t, 1, succeeded)

	// The seller's funds were reserved exactly once.
	bal, err := mem.GetBalance(9)
	require.NoError(t, err)
	assert.Equal(t, int64(0), bal.AvailableAmount)
	assert.Equal(t, int64(15000), bal.PendingAmount)
}

func TestCreditSellerValidation(t *testing.T) {
	svc, _, _ := newPayoutService(t)

	_, err := svc.CreditSeller(1, 0, "USD")
	require.Error(t, err)
	assert.True(t, ledger.IsKind(err, ledger.KindValidation))
}
