package engine

import (
	"ticklob/internal/common"

	"github.com/tidwall/btree"
)

// levelItem is the Side Tree's btree item: a price and the handle of the
// Price Level resting at it. The teacher keys its btree.BTreeG directly on
// *PriceLevel; we key on this small value type instead, since the Price
// Level itself now lives in the Book's levelArena (spec.md §9 arena
// design) rather than being individually heap-allocated.
type levelItem struct {
	price  common.Price
	handle levelHandle
}

// sideTree is one side (ask or bid) of the book: an ordered map
// price -> Price Level (spec.md §4.C), with O(log P) level insertion/
// removal via tidwall/btree (the teacher's choice, see
// internal/engine/orderbook.go in the teacher tree) and O(1) best-price
// access via the tree's Min (the bid comparator is inverted, see best).
type sideTree struct {
	tree   *btree.BTreeG[levelItem]
	levels *levelArena
	desc   bool // true for bids: best = highest price

	totalVolume common.Volume
	totalCount  common.Count
}

func newSideTree(levels *levelArena, desc bool) sideTree {
	var less func(a, b levelItem) bool
	if desc {
		less = func(a, b levelItem) bool { return a.price > b.price }
	} else {
		less = func(a, b levelItem) bool { return a.price < b.price }
	}
	return sideTree{
		tree:   btree.NewBTreeG(less),
		levels: levels,
		desc:   desc,
	}
}

// getOrCreateLevel returns the Price Level resting at price, allocating
// and inserting a new one if absent.
func (s *sideTree) getOrCreateLevel(price common.Price) levelHandle {
	item, ok := s.tree.Get(levelItem{price: price})
	if ok {
		return item.handle
	}
	h := s.levels.alloc(price)
	s.tree.Set(levelItem{price: price, handle: h})
	return h
}

// eraseLevel removes the (assumed empty) level at price from the tree
// and releases its arena slot.
func (s *sideTree) eraseLevel(price common.Price) {
	item, ok := s.tree.Delete(levelItem{price: price})
	if !ok {
		return
	}
	s.levels.release(item.handle)
}

// bestPrice returns the extremum price for this side, or 0 if empty.
func (s *sideTree) bestPrice() common.Price {
	item, ok := s.best()
	if !ok {
		return 0
	}
	return item.price
}

func (s *sideTree) best() (levelItem, bool) {
	// The bid comparator (newSideTree's desc branch) is inverted so the
	// highest real price sorts first; Min() under that comparator is
	// therefore already the best bid. Calling Max() here would double-flip
	// and return the worst bid instead.
	return s.tree.Min()
}

func (s *sideTree) volumeAt(price common.Price) common.Volume {
	item, ok := s.tree.Get(levelItem{price: price})
	if !ok {
		return 0
	}
	return s.levels.get(item.handle).volume
}

func (s *sideTree) countAt(price common.Price) common.Count {
	item, ok := s.tree.Get(levelItem{price: price})
	if !ok {
		return 0
	}
	return s.levels.get(item.handle).count
}

// match repeatedly takes the best level while crossable(price) holds and
// incoming remains, consuming it order-by-order. It stops at the first
// non-crossable best level or once incoming reaches zero (spec.md §4.C).
// onFilled is invoked once per fully filled resting order so the caller
// (the Book) can drop it from the ID index.
func (s *sideTree) match(incoming common.Quantity, crossable func(common.Price) bool, onFilled func(common.UID)) common.Quantity {
	var filled common.Quantity

	for incoming > 0 {
		item, ok := s.best()
		if !ok || !crossable(item.price) {
			break
		}

		preCount := s.levels.get(item.handle).count

		took := s.levels.consume(item.handle, incoming, onFilled)

		postCount := s.levels.get(item.handle).count

		filled += took
		incoming -= took
		s.totalVolume -= took
		s.totalCount -= preCount - postCount

		if s.levels.isEmpty(item.handle) {
			s.eraseLevel(item.price)
		}

		if took == 0 {
			// crossable but nothing left to take (shouldn't happen given
			// the spec.md invariant that empty levels are erased
			// immediately) — avoid a tight infinite loop regardless.
			break
		}
	}

	return filled
}

// restOrder appends a freshly allocated resting order to the level at
// price (creating the level if absent) and updates the side's cached
// aggregates. Returns the level handle.
func (s *sideTree) restOrder(price common.Price, oh orderHandle, qty common.Quantity) levelHandle {
	h := s.getOrCreateLevel(price)
	s.levels.append(h, oh)
	s.totalVolume += qty
	s.totalCount++
	return h
}

// dropOrder unlinks a resting order from its level, erasing the level if
// it becomes empty, and updates the side's cached aggregates. Does not
// release the order's arena slot — the caller does that.
func (s *sideTree) dropOrder(h levelHandle, oh orderHandle) {
	qty := s.levels.orders.get(oh).quantity
	price := s.levels.get(h).price

	s.levels.remove(h, oh)
	s.totalVolume -= qty
	s.totalCount--

	if s.levels.isEmpty(h) {
		s.eraseLevel(price)
	}
}

// totalVolumeOf and totalCountOf satisfy the spec.md §4.C
// total_volume()/total_count() cached-aggregate queries.
func (s *sideTree) totalVolumeOf() common.Volume { return s.totalVolume }
func (s *sideTree) totalCountOf() common.Count   { return s.totalCount }

// clear drops every level and resets the side to empty.
func (s *sideTree) clear() {
	*s = newSideTree(s.levels, s.desc)
}

// items returns every Price Level on this side, best-first, for
// introspection (tests, LogBook).
func (s *sideTree) items() []LevelView {
	views := make([]LevelView, 0, s.tree.Len())
	iter := func(it levelItem) bool {
		level := s.levels.get(it.handle)
		views = append(views, LevelView{
			Price:  level.price,
			Count:  level.count,
			Volume: level.volume,
			Orders: s.levels.items(it.handle),
		})
		return true
	}
	// Both sides use a full in-order Scan: the bid comparator is already
	// inverted (see newSideTree/best) so scanning it visits best-to-worst
	// just like the ask side does under its un-inverted comparator.
	s.tree.Scan(iter)
	return views
}
