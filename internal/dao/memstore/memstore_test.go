package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/haierkeys/note-registry-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_StagedWritesDiscardedOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("boom")

	err := s.Atomic(ctx, func(tx domain.RegistryTx) error {
		require.NoError(t, tx.SetNextNoteID(ctx, 1))
		require.NoError(t, tx.InsertNote(ctx, "alice", 0, domain.Note("a")))
		_, err := tx.AppendEvents(ctx, []domain.Event{domain.NoteCreated("alice", 0, domain.Note("a"))})
		require.NoError(t, err)

		// visible inside the transaction
		rec, err := tx.GetNote(ctx, "alice", 0)
		require.NoError(t, err)
		require.NotNil(t, rec)
		return boom
	})
	require.ErrorIs(t, err, boom)

	next, _ := s.NextNoteID(ctx)
	assert.Equal(t, domain.NoteID(0), next)
	rec, _ := s.GetNote(ctx, "alice", 0)
	assert.Nil(t, rec)
	events, _ := s.ListEvents(ctx, 0, 0)
	assert.Empty(t, events)
}

func TestStore_InsertRejectsTakenID(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Atomic(ctx, func(tx domain.RegistryTx) error {
		return tx.InsertNote(ctx, "alice", 1, domain.Note("a"))
	}))

	err := s.Atomic(ctx, func(tx domain.RegistryTx) error {
		return tx.InsertNote(ctx, "bob", 1, domain.Note("b"))
	})
	assert.ErrorIs(t, err, domain.ErrNoteExists)

	err = s.Atomic(ctx, func(tx domain.RegistryTx) error {
		return tx.InsertNote(ctx, "alice", 1, domain.Note("c"))
	})
	assert.ErrorIs(t, err, domain.ErrNoteExists)
}

func TestStore_MoveWithinTransaction(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Atomic(ctx, func(tx domain.RegistryTx) error {
		return tx.InsertNote(ctx, "alice", 4, domain.Note("cid"))
	}))
	created, _ := s.GetNote(ctx, "alice", 4)
	require.NotNil(t, created)

	require.NoError(t, s.Atomic(ctx, func(tx domain.RegistryTx) error {
		require.NoError(t, tx.RemoveNote(ctx, "alice", 4))
		return tx.InsertNote(ctx, "bob", 4, domain.Note("cid"))
	}))

	owner, ok, err := s.OwnerOf(ctx, 4)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, domain.Identity("bob"), owner)

	moved, _ := s.GetNote(ctx, "bob", 4)
	require.NotNil(t, moved)
	assert.Equal(t, created.CreatedAt, moved.CreatedAt)

	gone, _ := s.GetNote(ctx, "alice", 4)
	assert.Nil(t, gone)
}

func TestStore_ReadsReturnCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Atomic(ctx, func(tx domain.RegistryTx) error {
		return tx.InsertNote(ctx, "alice", 0, domain.Note("abc"))
	}))

	rec, _ := s.GetNote(ctx, "alice", 0)
	rec.Note[0] = 'x'

	again, _ := s.GetNote(ctx, "alice", 0)
	assert.Equal(t, "abc", string(again.Note))
}

func TestStore_ListAndEvents(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Atomic(ctx, func(tx domain.RegistryTx) error {
		for _, id := range []domain.NoteID{2, 0, 1} {
			if err := tx.InsertNote(ctx, "alice", id, domain.Note("n")); err != nil {
				return err
			}
		}
		_, err := tx.AppendEvents(ctx, []domain.Event{
			domain.NoteCreated("alice", 0, nil),
			domain.NoteCreated("alice", 1, nil),
			domain.NoteCreated("alice", 2, nil),
		})
		return err
	}))

	list, err := s.ListByOwner(ctx, "alice", 1, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, domain.NoteID(1), list[0].ID)
	assert.Equal(t, domain.NoteID(2), list[1].ID)

	n, _ := s.CountByOwner(ctx, "alice")
	assert.Equal(t, int64(3), n)

	events, err := s.ListEvents(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, int64(2), events[0].Seq)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Notes)
	assert.Equal(t, int64(1), stats.Owners)
	assert.Equal(t, int64(3), stats.LastEventSeq)
}

func TestStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := New().Atomic(ctx, func(tx domain.RegistryTx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
