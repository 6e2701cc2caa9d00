package engine

import "sync"

// Engine is a registry of independent, single-instrument Books keyed by
// symbol. It performs no routing or matching between Books — each Book
// is wholly independent and implements spec.md §3–§9 on its own; Engine
// is bookkeeping only (construct/lookup/drop a Book by symbol), adapted
// from the teacher's multi-asset Engine.Books map.
type Engine struct {
	mu    sync.Mutex
	books map[string]*Book
	opts  []Option
}

// New constructs an Engine with no Books registered. Every Book later
// constructed via Book(symbol) receives opts.
func New(opts ...Option) *Engine {
	return &Engine{
		books: make(map[string]*Book),
		opts:  opts,
	}
}

// Register installs book under symbol, replacing any existing book for
// that symbol.
func (e *Engine) Register(symbol string, book *Book) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.books[symbol] = book
}

// Book returns the Book for symbol, constructing one with the Engine's
// default options on first use.
func (e *Engine) Book(symbol string) *Book {
	e.mu.Lock()
	defer e.mu.Unlock()

	if b, ok := e.books[symbol]; ok {
		return b
	}
	b := NewBook(e.opts...)
	e.books[symbol] = b
	return b
}

// Lookup returns the Book for symbol without creating one, and whether it
// exists.
func (e *Engine) Lookup(symbol string) (*Book, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, ok := e.books[symbol]
	return b, ok
}

// Drop removes symbol's Book from the registry entirely.
func (e *Engine) Drop(symbol string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.books, symbol)
}

// Symbols returns every registered symbol.
func (e *Engine) Symbols() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	symbols := make([]string, 0, len(e.books))
	for s := range e.books {
		symbols = append(symbols, s)
	}
	return symbols
}
