package engine

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

func TestEngine_BookLazilyConstructs(t *testing.T) {
	e := New()

	assert.Empty(t, e.Symbols())

	b := e.Book("TICK")
	require.NotNil(t, b)

	again := e.Book("TICK")
	assert.Same(t, b, again, "Book must return the same instance on repeat lookup")

	assert.Equal(t, []string{"TICK"}, e.Symbols())
}

func TestEngine_Lookup(t *testing.T) {
	e := New()

	_, ok := e.Lookup("TICK")
	assert.False(t, ok, "Lookup must not construct a Book as a side effect")

	e.Book("TICK")
	found, ok := e.Lookup("TICK")
	assert.True(t, ok)
	assert.NotNil(t, found)
}

func TestEngine_Register(t *testing.T) {
	e := New()

	custom := NewBook()
	require.NoError(t, custom.LimitBuy(1, 10, 100))

	e.Register("TICK", custom)

	got, ok := e.Lookup("TICK")
	require.True(t, ok)
	assert.Same(t, custom, got)
	assert.True(t, got.Has(1), "Register must install the exact Book passed in, not a copy")
}

func TestEngine_RegisterReplacesExisting(t *testing.T) {
	e := New()
	e.Book("TICK")

	replacement := NewBook()
	e.Register("TICK", replacement)

	got, ok := e.Lookup("TICK")
	require.True(t, ok)
	assert.Same(t, replacement, got)
}

func TestEngine_Drop(t *testing.T) {
	e := New()
	e.Book("TICK")
	require.Contains(t, e.Symbols(), "TICK")

	e.Drop("TICK")

	_, ok := e.Lookup("TICK")
	assert.False(t, ok)
	assert.NotContains(t, e.Symbols(), "TICK")
}

func TestEngine_DropUnknownSymbolIsNoop(t *testing.T) {
	e := New()
	assert.NotPanics(t, func() { e.Drop("MISSING") })
}

func TestEngine_SymbolsReflectsAllRegisteredBooks(t *testing.T) {
	e := New()
	e.Book("AAA")
	e.Book("BBB")
	e.Register("CCC", NewBook())

	assert.ElementsMatch(t, []string{"AAA", "BBB", "CCC"}, e.Symbols())
}

func TestEngine_BookAppliesDefaultOptions(t *testing.T) {
	metrics := NewMetrics(newTestRegistry())
	e := New(WithMetrics(metrics))

	b := e.Book("TICK")
	assert.Same(t, metrics, b.metrics, "Book must receive the Engine's default options")
	require.NoError(t, b.LimitBuy(1, 10, 100))
	// A Book constructed with metrics wired must not panic when recording;
	// the counter values themselves are not checked here.
}
