package ecs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthCell(t *testing.T) *Cell {
	t.Helper()
	w, err := Component[Health](NewBuilder(), "health", StorageVec).Build()
	require.NoError(t, err)
	return w.cells[0]
}

func TestCell_ManyReaders(t *testing.T) {
	c := healthCell(t)
	r1, err := c.BorrowRead()
	require.NoError(t, err)
	r2, err := c.BorrowRead()
	require.NoError(t, err)
	r1.Release()
	r2.Release()
}

func TestCell_WriteBlockedByRead(t *testing.T) {
	c := healthCell(t)
	r, err := c.BorrowRead()
	require.NoError(t, err)

	_, err = c.BorrowWrite()
	require.ErrorIs(t, err, ErrBorrowViolation)
	var ae *AccessError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "health", ae.Type)

	r.Release()
	wh, err := c.BorrowWrite()
	require.NoError(t, err)
	wh.Release()
}

func TestCell_WriterExcludesEverything(t *testing.T) {
	c := healthCell(t)
	wh, err := c.BorrowWrite()
	require.NoError(t, err)

	_, err = c.BorrowRead()
	assert.ErrorIs(t, err, ErrBorrowViolation)
	_, err = c.BorrowWrite()
	assert.ErrorIs(t, err, ErrBorrowViolation)

	wh.Release()
	r, err := c.BorrowRead()
	require.NoError(t, err)
	r.Release()
}

func TestHandle_ReleaseIsIdempotent(t *testing.T) {
	c := healthCell(t)
	r1, err := c.BorrowRead()
	require.NoError(t, err)
	r2, err := c.BorrowRead()
	require.NoError(t, err)

	r1.Release()
	r1.Release()
	// r2 is still out, so a writer must still be refused.
	_, err = c.BorrowWrite()
	assert.ErrorIs(t, err, ErrBorrowViolation)

	r2.Release()
	wh, err := c.BorrowWrite()
	require.NoError(t, err)
	wh.Release()
	wh.Release()
}

func TestHandleSet_ReleaseAll(t *testing.T) {
	c := healthCell(t)
	var hs handleSet
	require.NoError(t, hs.acquire(c, Read))
	require.NoError(t, hs.acquire(c, Read))
	require.ErrorIs(t, hs.acquire(c, Write), ErrBorrowViolation)
	assert.Len(t, hs, 2)

	hs.releaseAll()
	assert.Empty(t, hs)
	require.NoError(t, hs.acquire(c, Write))
	hs.releaseAll()
}
