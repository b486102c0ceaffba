package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func seedProduct(t *testing.T, m *Mem, id string, stock int) {
	t.Helper()
	require.NoError(t, m.CreateProduct(context.Background(), &Product{
		ID: id, Name: "p-" + id, PriceCents: 1000, Stock: stock,
	}))
}

func TestLedgerDecrementNeverNegative(t *testing.T) {
	ctx := context.Background()
	m := NewMem()
	seedProduct(t, m, "p1", 3)

	left, err := m.Decrement(ctx, "p1", 2)
	require.NoError(t, err)
	assert.Equal(t, 1, left)

	_, err = m.Decrement(ctx, "p1", 2)
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "p1", stockErr.Shortages[0].ProductID)
	assert.Equal(t, 1, stockErr.Shortages[0].Available)

	// Failed decrement must not have mutated anything.
	p, err := m.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, p.Stock)

	left, err = m.Increment(ctx, "p1", 4)
	require.NoError(t, err)
	assert.Equal(t, 5, left)
}

func TestLedgerDecrementUnknownProduct(t *testing.T) {
	m := NewMem()
	_, err := m.Decrement(context.Background(), "ghost", 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDecrementAllIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	m := NewMem()
	seedProduct(t, m, "a", 10)
	seedProduct(t, m, "b", 1)

	shortages, err := m.DecrementAll(ctx, []ItemQty{
		{ProductID: "a", Qty: 3},
		{ProductID: "b", Qty: 2},
	})
	require.NoError(t, err)
	require.Len(t, shortages, 1)
	assert.Equal(t, "b", shortages[0].ProductID)

	// The passing line must not have been applied.
	a, _ := m.GetProduct(ctx, "a")
	b, _ := m.GetProduct(ctx, "b")
	assert.Equal(t, 10, a.Stock)
	assert.Equal(t, 1, b.Stock)

	shortages, err = m.DecrementAll(ctx, []ItemQty{
		{ProductID: "a", Qty: 3},
		{ProductID: "b", Qty: 1},
	})
	require.NoError(t, err)
	assert.Empty(t, shortages)
	a, _ = m.GetProduct(ctx, "a")
	b, _ = m.GetProduct(ctx, "b")
	assert.Equal(t, 7, a.Stock)
	assert.Equal(t, 0, b.Stock)
}

// Two lines for the same product must count against stock summed, not
// line by line.
func TestDecrementAllMergesDuplicateLines(t *testing.T) {
	ctx := context.Background()
	m := NewMem()
	seedProduct(t, m, "dup", 5)

	shortages, err := m.DecrementAll(ctx, []ItemQty{
		{ProductID: "dup", Qty: 3},
		{ProductID: "dup", Qty: 3},
	})
	require.NoError(t, err)
	require.Len(t, shortages, 1)
	assert.Equal(t, 6, shortages[0].Requested)
	assert.Equal(t, 5, shortages[0].Available)

	p, err := m.GetProduct(ctx, "dup")
	require.NoError(t, err)
	assert.Equal(t, 5, p.Stock)
	assert.GreaterOrEqual(t, p.Stock, 0)

	// Duplicates that fit once summed apply as one decrement.
	shortages, err = m.DecrementAll(ctx, []ItemQty{
		{ProductID: "dup", Qty: 2},
		{ProductID: "dup", Qty: 2},
	})
	require.NoError(t, err)
	assert.Empty(t, shortages)
	p, _ = m.GetProduct(ctx, "dup")
	assert.Equal(t, 1, p.Stock)
}

// N concurrent single-unit decrements against stock S must yield exactly
// min(N, S) successes and leave stock at max(0, S-N).
func TestLedgerConcurrentDecrements(t *testing.T) {
	const (
		n     = 100
		stock = 37
	)
	ctx := context.Background()
	m := NewMem()
	seedProduct(t, m, "hot", stock)

	var g errgroup.Group
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			_, err := m.Decrement(ctx, "hot", 1)
			results <- err
			return nil
		})
	}
	require.NoError(t, g.Wait())
	close(results)

	var ok, short int
	for err := range results {
		switch {
		case err == nil:
			ok++
		default:
			var stockErr *InsufficientStockError
			require.True(t, errors.As(err, &stockErr), "unexpected error: %v", err)
			short++
		}
	}
	assert.Equal(t, stock, ok)
	assert.Equal(t, n-stock, short)

	p, err := m.GetProduct(ctx, "hot")
	require.NoError(t, err)
	assert.Equal(t, 0, p.Stock)
}

func TestStoreTransitions(t *testing.T) {
	ctx := context.Background()
	m := NewMem()
	require.NoError(t, m.CreateOrder(ctx, &Order{ID: "o1", TrackID: "t1", CustomerID: "c1", Status: StatusPending}))

	_, err := m.UpdateStatus(ctx, "o1", StatusShipped)
	var illegal *IllegalTransitionError
	require.ErrorAs(t, err, &illegal)
	assert.Equal(t, StatusPending, illegal.From)

	o, err := m.UpdateStatus(ctx, "o1", StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, o.Status)

	o, err = m.UpdateStatus(ctx, "o1", StatusShipped)
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, o.Status)

	_, err = m.UpdateStatus(ctx, "missing", StatusConfirmed)
	assert.ErrorIs(t, err, ErrNotFound)
}
