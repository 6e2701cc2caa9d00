// Package engine implements the single-instrument limit order book
// matching engine: an in-memory, price-time-priority book over integer
// tick prices. The Book is single-writer — no two operations on the same
// Book may overlap in time; callers that need concurrent access must
// serialize externally (see internal/net for one such embedding).
package engine

import (
	"ticklob/internal/common"

	"github.com/rs/zerolog"
)

// Book owns two Side Trees (ask, bid), the ID index, and the arenas that
// back them (spec.md §3 "Book"). The zero value is not usable; construct
// with NewBook.
type Book struct {
	orders orderArena
	levels levelArena

	asks sideTree
	bids sideTree

	index map[common.UID]orderHandle

	log     zerolog.Logger
	metrics *Metrics
}

// Option configures a Book at construction time.
type Option func(*Book)

// WithLogger attaches a logger the Book will use for debug-level tracing
// of matches and rejections. The default is a disabled logger, so an
// embedded Book has no logging side effects unless a caller opts in.
func WithLogger(log zerolog.Logger) Option {
	return func(b *Book) { b.log = log }
}

// WithMetrics attaches a Metrics set the Book will update on every
// mutating operation. The default is nil (no metrics recorded).
func WithMetrics(m *Metrics) Option {
	return func(b *Book) { b.metrics = m }
}

// NewBook constructs an empty Book.
func NewBook(opts ...Option) *Book {
	b := &Book{
		index: make(map[common.UID]orderHandle),
		log:   zerolog.Nop(),
	}
	b.levels = newLevelArena(&b.orders)
	b.asks = newSideTree(&b.levels, false)
	b.bids = newSideTree(&b.levels, true)

	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Close releases the Book's resources. Go's garbage collector would do
// this regardless — Close exists for API symmetry with spec.md §6's
// delete(Book), and as a single hook for embedders that want one.
func (b *Book) Close() {
	b.Clear()
}

func (b *Book) sideTree(side common.Side) *sideTree {
	if side == common.Bid {
		return &b.bids
	}
	return &b.asks
}

func (b *Book) oppositeSideTree(side common.Side) *sideTree {
	if side == common.Bid {
		return &b.asks
	}
	return &b.bids
}

// Limit submits a limit order (spec.md §4.D). It matches against the
// opposite side first; any unfilled residual rests at price on side.
// Fails without mutating the Book if qty is zero, price is zero, or uid
// is already resting.
func (b *Book) Limit(side common.Side, uid common.UID, qty common.Quantity, price common.Price) error {
	if qty == 0 || price == 0 {
		b.log.Debug().Uint64("uid", uid).Msg("rejected limit order: invalid argument")
		return common.ErrInvalidArgument
	}
	if _, exists := b.index[uid]; exists {
		b.log.Debug().Uint64("uid", uid).Msg("rejected limit order: duplicate uid")
		return common.ErrDuplicateOrder
	}

	crossable := crossingPredicate(side, price)
	filled := b.oppositeSideTree(side).match(qty, crossable, b.dropFromIndex)
	remaining := qty - filled

	if b.metrics != nil {
		b.metrics.observeMatch(filled)
	}

	if remaining > 0 {
		oh := b.orders.alloc(uid, side, price, remaining)
		b.sideTree(side).restOrder(price, oh, remaining)
		b.index[uid] = oh
	}

	b.log.Debug().
		Uint64("uid", uid).
		Str("side", side.String()).
		Uint64("price", price).
		Uint32("filled", filled).
		Uint32("resting", remaining).
		Msg("limit order processed")

	if b.metrics != nil {
		b.metrics.observeSubmit("limit", side)
	}
	return nil
}

// LimitSell is the Ask-side convenience form of Limit.
func (b *Book) LimitSell(uid common.UID, qty common.Quantity, price common.Price) error {
	return b.Limit(common.Ask, uid, qty, price)
}

// LimitBuy is the Bid-side convenience form of Limit.
func (b *Book) LimitBuy(uid common.UID, qty common.Quantity, price common.Price) error {
	return b.Limit(common.Bid, uid, qty, price)
}

// Market submits a market order (spec.md §4.D). It matches unconditionally
// against the opposite side until exhausted or incoming is filled; any
// residual is discarded — market orders never rest. Fails without
// mutating the Book if qty is zero.
func (b *Book) Market(side common.Side, uid common.UID, qty common.Quantity) error {
	if qty == 0 {
		b.log.Debug().Uint64("uid", uid).Msg("rejected market order: invalid argument")
		return common.ErrInvalidArgument
	}

	filled := b.oppositeSideTree(side).match(qty, unconditional, b.dropFromIndex)

	if b.metrics != nil {
		b.metrics.observeMatch(filled)
		b.metrics.observeSubmit("market", side)
	}

	b.log.Debug().
		Uint64("uid", uid).
		Str("side", side.String()).
		Uint32("filled", filled).
		Uint32("discarded", qty-filled).
		Msg("market order processed")
	return nil
}

// MarketSell is the Ask-side convenience form of Market.
func (b *Book) MarketSell(uid common.UID, qty common.Quantity) error {
	return b.Market(common.Ask, uid, qty)
}

// MarketBuy is the Bid-side convenience form of Market.
func (b *Book) MarketBuy(uid common.UID, qty common.Quantity) error {
	return b.Market(common.Bid, uid, qty)
}

// Cancel removes a resting order (spec.md §4.D). Fails if uid is not
// resting.
func (b *Book) Cancel(uid common.UID) error {
	oh, exists := b.index[uid]
	if !exists {
		return common.ErrUnknownOrder
	}

	order := b.orders.get(oh)
	b.sideTree(order.side).dropOrder(order.level, oh)
	b.orders.release(oh)
	delete(b.index, uid)

	if b.metrics != nil {
		b.metrics.observeCancel()
	}
	b.log.Debug().Uint64("uid", uid).Msg("order canceled")
	return nil
}

// Has reports whether uid is currently resting. Total function.
func (b *Book) Has(uid common.UID) bool {
	_, exists := b.index[uid]
	return exists
}

// Get returns a value-typed snapshot of a resting order, and whether uid
// is currently resting. Spec.md §9's previously-unimplemented get(uid).
func (b *Book) Get(uid common.UID) (OrderView, bool) {
	oh, exists := b.index[uid]
	if !exists {
		return OrderView{}, false
	}
	order := b.orders.get(oh)
	return OrderView{
		UID:      order.uid,
		Side:     order.side,
		Price:    order.price,
		Quantity: order.quantity,
	}, true
}

// Best returns the extremum resting price on side, or 0 if that side is
// empty.
func (b *Book) Best(side common.Side) common.Price {
	return b.sideTree(side).bestPrice()
}

// BestSell is the Ask-side convenience form of Best.
func (b *Book) BestSell() common.Price { return b.Best(common.Ask) }

// BestBuy is the Bid-side convenience form of Best.
func (b *Book) BestBuy() common.Price { return b.Best(common.Bid) }

// VolumeSellPrice returns resting ask volume at price.
func (b *Book) VolumeSellPrice(price common.Price) common.Volume {
	return b.asks.volumeAt(price)
}

// VolumeBuyPrice returns resting bid volume at price.
func (b *Book) VolumeBuyPrice(price common.Price) common.Volume {
	return b.bids.volumeAt(price)
}

// VolumePrice returns resting volume at price, summed over both sides.
func (b *Book) VolumePrice(price common.Price) common.Volume {
	return b.VolumeSellPrice(price) + b.VolumeBuyPrice(price)
}

// VolumeSell returns total resting ask volume.
func (b *Book) VolumeSell() common.Volume { return b.asks.totalVolumeOf() }

// VolumeBuy returns total resting bid volume.
func (b *Book) VolumeBuy() common.Volume { return b.bids.totalVolumeOf() }

// Volume returns total resting volume, summed over both sides.
func (b *Book) Volume() common.Volume { return b.VolumeSell() + b.VolumeBuy() }

// CountAt returns the number of resting orders at price, summed over both
// sides.
func (b *Book) CountAt(price common.Price) common.Count {
	return b.asks.countAt(price) + b.bids.countAt(price)
}

// CountSell returns the total number of resting ask orders.
func (b *Book) CountSell() common.Count { return b.asks.totalCountOf() }

// CountBuy returns the total number of resting bid orders.
func (b *Book) CountBuy() common.Count { return b.bids.totalCountOf() }

// Count returns the total number of resting orders, summed over both
// sides.
func (b *Book) Count() common.Count { return b.CountSell() + b.CountBuy() }

// Clear drops every resting order, returning the Book to the empty state.
// Idempotent: clear(); clear() is equivalent to clear().
func (b *Book) Clear() {
	b.orders = orderArena{}
	b.levels = newLevelArena(&b.orders)
	b.asks = newSideTree(&b.levels, false)
	b.bids = newSideTree(&b.levels, true)
	b.index = make(map[common.UID]orderHandle)

	if b.metrics != nil {
		b.metrics.observeClear()
	}
	b.log.Debug().Msg("book cleared")
}

// Asks returns a best-first, FIFO-ordered snapshot of the ask side, for
// introspection (tests, LogBook).
func (b *Book) Asks() []LevelView { return b.asks.items() }

// Bids returns a best-first, FIFO-ordered snapshot of the bid side, for
// introspection (tests, LogBook).
func (b *Book) Bids() []LevelView { return b.bids.items() }

// dropFromIndex is the callback the Side Tree invokes (via the Price
// Level's consume) for every order it fully fills during matching. The
// level layer never touches the index directly — spec.md §2 keeps the ID
// index a Book-level concern.
func (b *Book) dropFromIndex(uid common.UID) {
	delete(b.index, uid)
}

// crossingPredicate implements spec.md §4.D's crossing rule: a buy at
// price crosses resting asks with price <= buyPrice; a sell at price
// crosses resting bids with price >= sellPrice.
func crossingPredicate(side common.Side, price common.Price) func(common.Price) bool {
	if side == common.Bid {
		return func(restingPrice common.Price) bool { return restingPrice <= price }
	}
	return func(restingPrice common.Price) bool { return restingPrice >= price }
}

// unconditional is the market-order crossing predicate: market orders
// cross unconditionally while opposing liquidity exists.
func unconditional(common.Price) bool { return true }
