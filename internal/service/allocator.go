package service

import (
	"context"

	"github.com/haierkeys/note-registry-service/internal/domain"
	"github.com/haierkeys/note-registry-service/pkg/code"
	"github.com/pkg/errors"
)

// Allocator hands out note ids from a counter cell.
// Ids are strictly increasing. Once the cell reaches domain.MaxNoteID every call fails
// with code.ErrorIDSpaceExhausted and the cell is left as it was.
// Allocator 从计数单元分配笔记编号, 编号严格递增, 耗尽后每次调用都返回 ErrorIDSpaceExhausted
type Allocator struct{}

func NewAllocator() *Allocator {
	return &Allocator{}
}

// Allocate returns the current value of the cell and stores its successor.
// It must run inside the same transaction as whatever consumes the id.
// Allocate 返回计数单元当前值并写回下一个值, 必须与使用该编号的写入处于同一事务
func (a *Allocator) Allocate(ctx context.Context, cell domain.CounterCell) (domain.NoteID, error) {
	current, err := cell.NextNoteID(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "read next note id")
	}

	next, ok := current.Next()
	if !ok {
		return 0, code.ErrorIDSpaceExhausted
	}

	if err := cell.SetNextNoteID(ctx, next); err != nil {
		return 0, errors.Wrap(err, "store next note id")
	}
	return current, nil
}
