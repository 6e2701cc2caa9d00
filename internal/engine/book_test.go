package engine

import (
	"testing"

	"ticklob/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Scenarios S1-S8 (spec.md §8) -------------------------------------------

func TestScenario_S1_FreshBookIsEmpty(t *testing.T) {
	b := NewBook()

	assert.Equal(t, common.Price(0), b.BestSell())
	assert.Equal(t, common.Price(0), b.BestBuy())
	assert.Equal(t, common.Volume(0), b.Volume())
	assert.Equal(t, common.Volume(0), b.VolumePrice(100))
	assert.Equal(t, common.Count(0), b.CountAt(100))
	assert.Equal(t, common.Count(0), b.Count())
}

func TestScenario_S2_RestASellLimit(t *testing.T) {
	b := NewBook()
	require.NoError(t, b.LimitSell(1, 100, 50))

	assert.Equal(t, common.Price(50), b.BestSell())
	assert.Equal(t, common.Price(0), b.BestBuy())
	assert.Equal(t, common.Volume(100), b.VolumeSell())
	assert.Equal(t, common.Volume(100), b.VolumeSellPrice(50))
	assert.Equal(t, common.Volume(100), b.Volume())
	assert.Equal(t, common.Count(1), b.CountAt(50))
	assert.Equal(t, common.Count(1), b.CountSell())
	assert.Equal(t, common.Count(0), b.CountBuy())
	assert.Equal(t, common.Count(1), b.Count())
}

func TestScenario_S3_CancelReturnsToEmpty(t *testing.T) {
	b := NewBook()
	require.NoError(t, b.LimitSell(1, 100, 50))
	require.NoError(t, b.Cancel(1))

	assert.False(t, b.Has(1))
	assert.Equal(t, common.Price(0), b.BestSell())
	assert.Equal(t, common.Price(0), b.BestBuy())
	assert.Equal(t, common.Volume(0), b.Volume())
	assert.Equal(t, common.Count(0), b.Count())
}

func TestScenario_S4_MarketAgainstEmptyBookIsNoop(t *testing.T) {
	b := NewBook()
	require.NoError(t, b.MarketSell(1, 100))

	assert.Equal(t, common.Volume(0), b.Volume())
	assert.Equal(t, common.Count(0), b.Count())
	assert.False(t, b.Has(1))
}

func TestScenario_S5_PartialMarketMatch(t *testing.T) {
	b := NewBook()
	require.NoError(t, b.LimitBuy(1, 100, 50))
	require.NoError(t, b.MarketSell(2, 10))

	assert.Equal(t, common.Price(50), b.BestBuy())
	assert.Equal(t, common.Volume(90), b.VolumeBuy())
	assert.Equal(t, common.Volume(90), b.VolumeBuyPrice(50))
	assert.Equal(t, common.Count(1), b.CountAt(50))
	assert.Equal(t, common.Count(1), b.CountBuy())
	assert.Equal(t, common.Count(1), b.Count())

	// Symmetric case with sides swapped.
	b2 := NewBook()
	require.NoError(t, b2.LimitSell(1, 100, 50))
	require.NoError(t, b2.MarketBuy(2, 10))

	assert.Equal(t, common.Price(50), b2.BestSell())
	assert.Equal(t, common.Volume(90), b2.VolumeSell())
	assert.Equal(t, common.Volume(90), b2.VolumeSellPrice(50))
	assert.Equal(t, common.Count(1), b2.CountAt(50))
	assert.Equal(t, common.Count(1), b2.CountSell())
	assert.Equal(t, common.Count(1), b2.Count())
}

func TestScenario_S6_ClearRemovesAllRestingState(t *testing.T) {
	b := NewBook()
	require.NoError(t, b.LimitSell(1, 10, 50))
	require.NoError(t, b.LimitSell(2, 10, 50))
	require.NoError(t, b.LimitSell(3, 10, 50))

	b.Clear()

	assert.False(t, b.Has(1))
	assert.False(t, b.Has(2))
	assert.False(t, b.Has(3))
	assert.Equal(t, common.Volume(0), b.Volume())
	assert.Equal(t, common.Count(0), b.Count())
	assert.Equal(t, common.Price(0), b.BestSell())
	assert.Equal(t, common.Price(0), b.BestBuy())
}

func TestScenario_S7_PriceTimePriorityAcrossLevels(t *testing.T) {
	b := NewBook()
	require.NoError(t, b.LimitSell(1, 10, 50))
	require.NoError(t, b.LimitSell(2, 10, 60))
	require.NoError(t, b.LimitBuy(3, 15, 60))

	assert.False(t, b.Has(1))
	view, ok := b.Get(2)
	require.True(t, ok)
	assert.Equal(t, common.Quantity(5), view.Quantity)

	assert.Equal(t, common.Price(60), b.BestSell())
	assert.Equal(t, common.Volume(5), b.VolumeSell())
	assert.Equal(t, common.Count(1), b.CountSell())
	assert.Equal(t, common.Count(0), b.CountBuy())
}

func TestScenario_S8_FIFOWithinALevel(t *testing.T) {
	b := NewBook()
	require.NoError(t, b.LimitSell(1, 10, 50))
	require.NoError(t, b.LimitSell(2, 10, 50))
	require.NoError(t, b.MarketBuy(3, 10))

	assert.False(t, b.Has(1))
	assert.True(t, b.Has(2))
	assert.Equal(t, common.Volume(10), b.VolumeSellPrice(50))
	assert.Equal(t, common.Count(1), b.CountAt(50))
}

// --- Laws (spec.md §8) -------------------------------------------------------

func TestLaw_CancelInverse(t *testing.T) {
	b := NewBook()
	before := snapshot(b)

	require.NoError(t, b.LimitBuy(42, 30, 1000))
	require.NoError(t, b.Cancel(42))

	assert.Equal(t, before, snapshot(b))
	assert.False(t, b.Has(42))
}

func TestLaw_ClearIdempotence(t *testing.T) {
	b := NewBook()
	require.NoError(t, b.LimitBuy(1, 10, 100))
	require.NoError(t, b.LimitSell(2, 10, 200))

	b.Clear()
	after1 := snapshot(b)
	b.Clear()
	after2 := snapshot(b)

	fresh := snapshot(NewBook())
	assert.Equal(t, fresh, after1)
	assert.Equal(t, fresh, after2)
}

func TestLaw_MatchingConservation(t *testing.T) {
	b := NewBook()
	require.NoError(t, b.LimitSell(1, 50, 100))
	require.NoError(t, b.LimitSell(2, 50, 100))

	// Market buy for more than resting liquidity: residual discarded.
	require.NoError(t, b.MarketBuy(3, 150))

	traded := common.Quantity(100) // both resting sells fully consumed
	resting := b.Volume()          // should be zero: fully consumed, nothing added on the buy side
	added := common.Quantity(100)  // 50 + 50 limit sells added; market buy never rests regardless of fill
	discardedResidual := common.Quantity(50)

	assert.Equal(t, added, traded+resting)
	assert.Equal(t, common.Quantity(150), traded+discardedResidual)
}

func TestLaw_FIFOPriority(t *testing.T) {
	b := NewBook()
	require.NoError(t, b.LimitSell(1, 10, 100))
	require.NoError(t, b.LimitSell(2, 10, 100))
	require.NoError(t, b.LimitBuy(3, 10, 100))

	assert.False(t, b.Has(1), "earlier sell at the same price fills first")
	assert.True(t, b.Has(2))
}

// --- Invariants (spec.md §8) --------------------------------------------------

func TestInvariants_HoldAfterRandomizedOperations(t *testing.T) {
	b := NewBook()
	var nextUID common.UID = 1

	ops := []func(){
		func() {
			uid := nextUID
			nextUID++
			_ = b.LimitBuy(uid, 10, 100+common.Price(uid%5))
		},
		func() {
			uid := nextUID
			nextUID++
			_ = b.LimitSell(uid, 10, 100+common.Price(uid%5))
		},
		func() {
			uid := nextUID
			nextUID++
			_ = b.MarketBuy(uid, 15)
		},
		func() {
			uid := nextUID
			nextUID++
			_ = b.MarketSell(uid, 15)
		},
		func() {
			if nextUID > 1 {
				_ = b.Cancel(nextUID / 2)
			}
		},
	}

	for i := 0; i < 200; i++ {
		ops[i%len(ops)]()
		assertInvariants(t, b)
	}
}

// snapshot captures every aggregate query for equality comparisons in the
// cancel-inverse and clear-idempotence laws.
type bookSnapshot struct {
	bestSell, bestBuy             common.Price
	volumeSell, volumeBuy, volume common.Volume
	countSell, countBuy, count    common.Count
}

func snapshot(b *Book) bookSnapshot {
	return bookSnapshot{
		bestSell:   b.BestSell(),
		bestBuy:    b.BestBuy(),
		volumeSell: b.VolumeSell(),
		volumeBuy:  b.VolumeBuy(),
		volume:     b.Volume(),
		countSell:  b.CountSell(),
		countBuy:   b.CountBuy(),
		count:      b.Count(),
	}
}

// assertInvariants checks every spec.md §8 invariant against the Book's
// current state.
func assertInvariants(t *testing.T, b *Book) {
	t.Helper()

	assert.Equal(t, b.Count(), b.CountSell()+b.CountBuy())
	assert.Equal(t, b.Volume(), b.VolumeSell()+b.VolumeBuy())

	assert.Equal(t, b.BestSell() == 0, b.CountSell() == 0)
	assert.Equal(t, b.BestBuy() == 0, b.CountBuy() == 0)

	if b.CountSell() > 0 && b.CountBuy() > 0 {
		assert.Greater(t, b.BestSell(), b.BestBuy(), "book must not be crossed")
	}

	for _, level := range b.Asks() {
		assert.NotEmpty(t, level.Orders, "no empty price level should be observable")
		assert.Equal(t, b.VolumeSellPrice(level.Price), level.Volume)
	}
	for _, level := range b.Bids() {
		assert.NotEmpty(t, level.Orders, "no empty price level should be observable")
		assert.Equal(t, b.VolumeBuyPrice(level.Price), level.Volume)
	}
}
