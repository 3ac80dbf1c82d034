package service

import (
	"context"
	"errors"
	"testing"

	"github.com/haierkeys/note-registry-service/internal/domain"
	"github.com/haierkeys/note-registry-service/pkg/code"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counterCell struct {
	value    domain.NoteID
	readErr  error
	writeErr error
	writes   int
}

func (c *counterCell) NextNoteID(ctx context.Context) (domain.NoteID, error) {
	return c.value, c.readErr
}

func (c *counterCell) SetNextNoteID(ctx context.Context, id domain.NoteID) error {
	if c.writeErr != nil {
		return c.writeErr
	}
	c.writes++
	c.value = id
	return nil
}

func TestAllocator_Sequential(t *testing.T) {
	ctx := context.Background()
	cell := &counterCell{}
	alloc := NewAllocator()

	for want := domain.NoteID(0); want < 5; want++ {
		got, err := alloc.Allocate(ctx, cell)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, domain.NoteID(5), cell.value)
}

func TestAllocator_Exhausted(t *testing.T) {
	ctx := context.Background()
	alloc := NewAllocator()

	cell := &counterCell{value: domain.MaxNoteID - 1}
	id, err := alloc.Allocate(ctx, cell)
	require.NoError(t, err)
	assert.Equal(t, domain.MaxNoteID-1, id)
	assert.Equal(t, domain.MaxNoteID, cell.value)

	// every further call fails and leaves the cell alone
	for i := 0; i < 3; i++ {
		_, err := alloc.Allocate(ctx, cell)
		assert.True(t, errors.Is(err, code.ErrorIDSpaceExhausted), "got %v", err)
		assert.Equal(t, domain.MaxNoteID, cell.value)
	}
	assert.Equal(t, 1, cell.writes)
}

func TestAllocator_StorageErrors(t *testing.T) {
	ctx := context.Background()
	alloc := NewAllocator()
	boom := errors.New("boom")

	_, err := alloc.Allocate(ctx, &counterCell{readErr: boom})
	assert.ErrorIs(t, err, boom)

	cell := &counterCell{value: 7, writeErr: boom}
	_, err = alloc.Allocate(ctx, cell)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, domain.NoteID(7), cell.value)
}

func TestNoteID_Next(t *testing.T) {
	next, ok := domain.NoteID(0).Next()
	assert.True(t, ok)
	assert.Equal(t, domain.NoteID(1), next)

	_, ok = domain.MaxNoteID.Next()
	assert.False(t, ok)
}
