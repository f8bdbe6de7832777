package ecs

import "sync"

// Cell guards one component store or resource value. Any number of read
// handles or exactly one write handle may be out at a time. Borrowing never
// blocks: a request that would overlap a writer fails with ErrBorrowViolation.
type Cell struct {
	info  TypeInfo
	mu    sync.RWMutex
	store erasedStore // components
	value any         // resources, always a *T
}

// Info describes the type this cell guards.
func (c *Cell) Info() TypeInfo { return c.info }

// BorrowRead takes a shared handle. It fails while a write handle is out.
func (c *Cell) BorrowRead() (*ReadHandle, error) {
	if !c.mu.TryRLock() {
		return nil, accessErr(c.info.Name, ErrBorrowViolation)
	}
	return &ReadHandle{cell: c}, nil
}

// BorrowWrite takes the exclusive handle. It fails while any handle is out.
func (c *Cell) BorrowWrite() (*WriteHandle, error) {
	if !c.mu.TryLock() {
		return nil, accessErr(c.info.Name, ErrBorrowViolation)
	}
	return &WriteHandle{cell: c}, nil
}

// Handle is either kind of borrow. Release is idempotent.
type Handle interface {
	Cell() *Cell
	Mode() AccessMode
	Release()
}

type ReadHandle struct {
	cell     *Cell
	released bool
}

func (h *ReadHandle) Cell() *Cell      { return h.cell }
func (h *ReadHandle) Mode() AccessMode { return Read }

func (h *ReadHandle) Release() {
	if h.released {
		return
	}
	h.released = true
	h.cell.mu.RUnlock()
}

type WriteHandle struct {
	cell     *Cell
	released bool
}

func (h *WriteHandle) Cell() *Cell      { return h.cell }
func (h *WriteHandle) Mode() AccessMode { return Write }

func (h *WriteHandle) Release() {
	if h.released {
		return
	}
	h.released = true
	h.cell.mu.Unlock()
}

// borrow takes a handle of the given mode on c.
func borrow(c *Cell, mode AccessMode) (Handle, error) {
	if mode == Write {
		return c.BorrowWrite()
	}
	return c.BorrowRead()
}

// handleSet collects the handles of one scope so they can be dropped together.
type handleSet []Handle

func (s *handleSet) acquire(c *Cell, mode AccessMode) error {
	h, err := borrow(c, mode)
	if err != nil {
		return err
	}
	*s = append(*s, h)
	return nil
}

func (s *handleSet) releaseAll() {
	for i := len(*s) - 1; i >= 0; i-- {
		(*s)[i].Release()
	}
	*s = (*s)[:0]
}
