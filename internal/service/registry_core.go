package service

import (
	"context"

	"github.com/haierkeys/note-registry-service/internal/domain"
	"github.com/haierkeys/note-registry-service/pkg/code"
	"github.com/pkg/errors"
)

// createNote allocates an id and stores payload under (caller, id).
// Returned errors leave tx to be rolled back by the caller.
// createNote 分配编号并把内容写入 (caller, id)
func createNote(ctx context.Context, tx domain.RegistryTx, alloc *Allocator, caller domain.Identity, payload []byte) (domain.NoteID, []domain.Event, error) {
	id, err := alloc.Allocate(ctx, tx)
	if err != nil {
		return 0, nil, err
	}

	note := domain.Note(payload).Clone()
	if err := tx.InsertNote(ctx, caller, id, note); err != nil {
		return 0, nil, errors.Wrapf(err, "insert note %d", id)
	}

	return id, []domain.Event{domain.NoteCreated(caller, id, note)}, nil
}

// transferNote moves (caller, id) to (to, id).
// Transferring to oneself succeeds without writes or events when the entry exists.
// transferNote 把 (caller, id) 转移到 (to, id), 转给自己时不写入也不产生事件
func transferNote(ctx context.Context, tx domain.RegistryTx, caller, to domain.Identity, id domain.NoteID) ([]domain.Event, error) {
	record, err := tx.GetNote(ctx, caller, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get note %d", id)
	}
	if record == nil {
		return nil, code.ErrorInvalidNoteID
	}

	if caller == to {
		return nil, nil
	}

	if err := tx.RemoveNote(ctx, caller, id); err != nil {
		return nil, errors.Wrapf(err, "remove note %d", id)
	}
	if err := tx.InsertNote(ctx, to, id, record.Note); err != nil {
		return nil, errors.Wrapf(err, "insert note %d", id)
	}

	return []domain.Event{domain.NoteTransferred(caller, to, id)}, nil
}
