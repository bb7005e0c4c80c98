package abi

import (
	"fmt"
	"sync"

	"github.com/memlink-ipc/memlink/internal/log"
)

// Handle is an opaque reference handed across the foreign boundary in
// place of a Go pointer. Zero is never a valid handle.
type Handle uint64

// Table owns the values parked behind handles. Every handle is produced by
// Put and retired by exactly one Take; using a handle after the call that
// consumed it is a contract violation and panics rather than corrupting
// another caller's value.
type Table struct {
	mu      sync.Mutex
	next    Handle
	entries map[Handle]any
}

// NewTable creates an empty handle table.
func NewTable() *Table {
	return &Table{entries: make(map[Handle]any)}
}

// DefaultTable is the process-wide table the exported boundary uses.
var DefaultTable = NewTable()

// Put parks v and returns its handle.
func (t *Table) Put(v any) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.next++
	h := t.next
	t.entries[h] = v
	log.Debug(log.CatABI, "handle issued", "handle", uint64(h))
	return h
}

// Borrow returns the value behind h without consuming it.
func (t *Table) Borrow(h Handle) (any, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	v, ok := t.entries[h]
	return v, ok
}

// Take consumes h and returns its value. The handle is invalid afterwards.
func (t *Table) Take(h Handle) any {
	t.mu.Lock()
	defer t.mu.Unlock()

	v, ok := t.entries[h]
	if !ok {
		panic(fmt.Sprintf("abi: handle %d is invalid or already consumed", h))
	}
	delete(t.entries, h)
	log.Debug(log.CatABI, "handle consumed", "handle", uint64(h))
	return v
}

// Len returns how many handles are outstanding.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
