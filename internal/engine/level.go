package engine

import "ticklob/internal/common"

// levelSlot is an arena-resident Price Level (spec.md §3, §4.B): a FIFO
// queue of orders resting at one price on one side, plus the cached
// aggregates that make volume_at/count_at O(1).
type levelSlot struct {
	price  common.Price
	head   orderHandle
	tail   orderHandle
	count  common.Count
	volume common.Volume
	live   bool
}

// levelArena owns every Price Level the Book has allocated, and the
// shared order arena its FIFOs are built from. Operations here are the
// spec.md §4.B Price Level operations, realized over handles.
type levelArena struct {
	slots  []levelSlot
	free   []levelHandle
	orders *orderArena
}

func newLevelArena(orders *orderArena) levelArena {
	return levelArena{orders: orders}
}

func (a *levelArena) alloc(price common.Price) levelHandle {
	slot := levelSlot{price: price, head: nilOrderHandle, tail: nilOrderHandle, live: true}
	if n := len(a.free); n > 0 {
		h := a.free[n-1]
		a.free = a.free[:n-1]
		a.slots[h] = slot
		return h
	}
	a.slots = append(a.slots, slot)
	return levelHandle(len(a.slots) - 1)
}

func (a *levelArena) release(h levelHandle) {
	a.slots[h].live = false
	a.free = append(a.free, h)
}

func (a *levelArena) get(h levelHandle) *levelSlot {
	return &a.slots[h]
}

// append places oh at the FIFO tail of level h. O(1).
func (a *levelArena) append(h levelHandle, oh orderHandle) {
	level := &a.slots[h]
	order := a.orders.get(oh)

	order.level = h
	order.prev = level.tail
	order.next = nilOrderHandle

	if level.tail != nilOrderHandle {
		a.orders.get(level.tail).next = oh
	} else {
		level.head = oh
	}
	level.tail = oh

	level.count++
	level.volume += order.quantity
}

// remove unlinks oh from level h's FIFO. O(1). Does not free oh's slot —
// the caller decides whether the order is being canceled (and thus
// released) or merely relocated.
func (a *levelArena) remove(h levelHandle, oh orderHandle) {
	level := &a.slots[h]
	order := a.orders.get(oh)

	if order.prev != nilOrderHandle {
		a.orders.get(order.prev).next = order.next
	} else {
		level.head = order.next
	}
	if order.next != nilOrderHandle {
		a.orders.get(order.next).prev = order.prev
	} else {
		level.tail = order.prev
	}

	level.count--
	level.volume -= order.quantity
}

// consume walks level h head-first, fully filling orders while requested
// remains >= head.quantity, partially filling a final head order
// otherwise. Returns the quantity actually filled (<= requested). Every
// fully filled order is unlinked, reported via onFilled (so the caller
// can drop it from the ID index), and released back to the order arena.
func (a *levelArena) consume(h levelHandle, requested common.Quantity, onFilled func(common.UID)) common.Quantity {
	level := &a.slots[h]
	var filled common.Quantity

	for requested > 0 {
		oh := level.head
		if oh == nilOrderHandle {
			break
		}
		order := a.orders.get(oh)

		if requested >= order.quantity {
			take := order.quantity
			filled += take
			requested -= take
			level.volume -= take
			level.count--

			next := order.next
			level.head = next
			if next != nilOrderHandle {
				a.orders.get(next).prev = nilOrderHandle
			} else {
				level.tail = nilOrderHandle
			}

			onFilled(order.uid)
			order.quantity = 0
			a.orders.release(oh)
		} else {
			order.quantity -= requested
			level.volume -= requested
			filled += requested
			requested = 0
		}
	}

	return filled
}

func (a *levelArena) isEmpty(h levelHandle) bool {
	return a.slots[h].count == 0
}

// items returns a FIFO-ordered snapshot of level h's resting orders, for
// introspection (tests, debug logging). It never exposes handles.
func (a *levelArena) items(h levelHandle) []OrderView {
	level := &a.slots[h]
	views := make([]OrderView, 0, level.count)
	for oh := level.head; oh != nilOrderHandle; {
		order := a.orders.get(oh)
		views = append(views, OrderView{
			UID:      order.uid,
			Side:     order.side,
			Price:    order.price,
			Quantity: order.quantity,
		})
		oh = order.next
	}
	return views
}
