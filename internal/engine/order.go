package engine

import "ticklob/internal/common"

// orderSlot is an arena-resident Order record (spec.md §3, §4.A). A
// resting order has quantity > 0, belongs to exactly one Price Level
// (level != nilLevelHandle) and exactly one ID index entry.
type orderSlot struct {
	uid      common.UID
	side     common.Side
	price    common.Price
	quantity common.Quantity
	level    levelHandle
	prev     orderHandle
	next     orderHandle
	live     bool
}

// orderArena owns every Order the Book has ever allocated. Freed slots are
// recycled via a freelist, so allocation and release are O(1) and never
// touch the general-purpose heap after warm-up.
type orderArena struct {
	slots []orderSlot
	free  []orderHandle
}

// alloc constructs a new resting Order and returns its handle.
func (a *orderArena) alloc(uid common.UID, side common.Side, price common.Price, qty common.Quantity) orderHandle {
	slot := orderSlot{
		uid:      uid,
		side:     side,
		price:    price,
		quantity: qty,
		level:    nilLevelHandle,
		prev:     nilOrderHandle,
		next:     nilOrderHandle,
		live:     true,
	}
	if n := len(a.free); n > 0 {
		h := a.free[n-1]
		a.free = a.free[:n-1]
		a.slots[h] = slot
		return h
	}
	a.slots = append(a.slots, slot)
	return orderHandle(len(a.slots) - 1)
}

// release returns a slot to the freelist. The caller must have already
// unlinked it from its Price Level's FIFO.
func (a *orderArena) release(h orderHandle) {
	a.slots[h].live = false
	a.slots[h].level = nilLevelHandle
	a.free = append(a.free, h)
}

func (a *orderArena) get(h orderHandle) *orderSlot {
	return &a.slots[h]
}

// decrement reduces a resting order's remaining quantity by amt, which
// must not exceed the current remaining quantity.
func (a *orderArena) decrement(h orderHandle, amt common.Quantity) {
	a.slots[h].quantity -= amt
}
