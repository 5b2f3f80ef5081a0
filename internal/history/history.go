// Package history keeps a linear undo/redo log of graph snapshots.
//
// The log only records; it does not decide when a transaction ends. Callers
// push once per discrete user action (a finished drag, a deletion, a new
// connection), never per intermediate state.
package history

import (
	"time"

	"github.com/gyaneshwarpardhi/patchbay/internal/geom"
	"github.com/gyaneshwarpardhi/patchbay/internal/graph"
	"github.com/gyaneshwarpardhi/patchbay/internal/selection"
)

// Transaction is a snapshot taken after a user action.
type Transaction struct {
	ID             int
	Description    string
	Graph          *graph.State
	Selection      selection.Selection
	Date           time.Time
	ViewportOffset geom.Coordinates
}

// History holds transactions and the index of the one matching the live
// state. -1 <= current < len(transactions).
type History struct {
	transactions []Transaction
	current      int
	nextID       int
	limit        int
	now          func() time.Time
}

// Option configures a History.
type Option func(*History)

// WithLimit bounds the number of retained transactions; 0 means unbounded.
func WithLimit(n int) Option {
	return func(h *History) { h.limit = n }
}

// WithClock overrides the transaction timestamp source.
func WithClock(now func() time.Time) Option {
	return func(h *History) { h.now = now }
}

// New returns an empty history.
func New(opts ...Option) *History {
	h := &History{current: -1, nextID: 1, now: time.Now}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Push records a snapshot after the current entry, discarding any redo
// branch, and makes it current.
func (h *History) Push(description string, g *graph.State, sel selection.Selection) Transaction {
	t := Transaction{
		ID:             h.nextID,
		Description:    description,
		Graph:          g,
		Selection:      sel,
		Date:           h.now(),
		ViewportOffset: g.ViewportOffset,
	}
	h.nextID++
	h.transactions = append(h.transactions[:h.current+1], t)
	if h.limit > 0 && len(h.transactions) > h.limit {
		drop := len(h.transactions) - h.limit
		h.transactions = append([]Transaction(nil), h.transactions[drop:]...)
	}
	h.current = len(h.transactions) - 1
	return t
}

func (h *History) HasPrevious() bool { return h.current > 0 }
func (h *History) HasNext() bool     { return h.current+1 < len(h.transactions) }

// Undo steps back one transaction and returns the snapshot to restore.
func (h *History) Undo() (Transaction, bool) {
	if !h.HasPrevious() {
		return Transaction{}, false
	}
	h.current--
	return h.transactions[h.current], true
}

// Redo steps forward one transaction and returns the snapshot to restore.
func (h *History) Redo() (Transaction, bool) {
	if !h.HasNext() {
		return Transaction{}, false
	}
	h.current++
	return h.transactions[h.current], true
}

// Clear drops every transaction.
func (h *History) Clear() {
	h.transactions = nil
	h.current = -1
}

// SetSavePoint clears the log and records a single baseline, so undo never
// goes further back than this point.
func (h *History) SetSavePoint(description string, g *graph.State, sel selection.Selection) Transaction {
	h.Clear()
	return h.Push(description, g, sel)
}

// Current returns the transaction matching the live state.
func (h *History) Current() (Transaction, bool) {
	if h.current < 0 {
		return Transaction{}, false
	}
	return h.transactions[h.current], true
}

func (h *History) Index() int { return h.current }
func (h *History) Len() int   { return len(h.transactions) }

// Transactions returns a copy of the log.
func (h *History) Transactions() []Transaction {
	return append([]Transaction(nil), h.transactions...)
}
