package engine

import "ticklob/internal/common"

// OrderView is a value-typed snapshot of a resting order, returned by
// Book.Get. It never exposes an arena handle or pointer — spec.md §9
// recommends exactly this shape for the otherwise-unimplemented get(uid)
// slot in the original surface.
type OrderView struct {
	UID      common.UID
	Side     common.Side
	Price    common.Price
	Quantity common.Quantity
}

// LevelView is a value-typed snapshot of one Price Level, FIFO-ordered,
// used for introspection (tests, LogBook) without exposing arena
// internals.
type LevelView struct {
	Price    common.Price
	Count    common.Count
	Volume   common.Volume
	Orders   []OrderView
}
