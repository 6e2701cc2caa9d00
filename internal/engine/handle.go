package engine

// orderHandle and levelHandle are small integer handles into the Book's
// flat arenas (see order.go, level.go). They replace pointer-based
// back-references so the Book can own its Orders and Price Levels without
// forming a cyclic ownership graph: freeing a slot is O(1) and never
// touches the Go allocator.
type orderHandle uint32
type levelHandle uint32

// nilOrderHandle and nilLevelHandle mark an absent reference (e.g. a Price Level with no head
// order, or an order with no predecessor).
const nilOrderHandle orderHandle = ^orderHandle(0)
const nilLevelHandle levelHandle = ^levelHandle(0)
