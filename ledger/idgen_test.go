package ledger_test

import (
	"regexp"
	"testing"

	"procur/ledger"
	"procur/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionNumbersAreUniqueAndFormatted(t *testing.T) {
	gen := ledger.NewIDGenerator(store.NewMemory())

	pattern := regexp.MustCompile(`^TXN-\d{8}$`)
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		n, err := gen.NextTransactionNumber()
		require.NoError(t, err)
		assert.Regexp(t, pattern, n)
		assert.False(t, seen[n], "number %s issued twice", n)
		seen[n] = true
	}
}

func TestBatchReferenceFormat(t *testing.T) {
	gen := ledger.NewIDGenerator(store.NewMemory())

	ref, err := gen.NextBatchReference()
	require.NoError(t, err)
	assert.Regexp(t, `^PB-\d{8}-\d{6}$`, ref)

	next, err := gen.NextBatchReference()
	require.NoError(t, err)
	assert.NotEqual(t, ref, next)
}
