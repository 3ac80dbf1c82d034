// Package domain 定义领域模型和接口
package domain

import (
	"bytes"
	"errors"
	"math"
	"strconv"
	"time"
)

// ErrNoteExists is returned by stores when an insert would give a note id a second entry.
// ErrNoteExists 插入会导致同一编号出现两条记录时返回
var ErrNoteExists = errors.New("note already exists")

// Identity is an opaque account identifier.
// Identity 账户标识
type Identity string

func (i Identity) String() string {
	return string(i)
}

// NoteID identifies a note. Ids are handed out once and never wrap.
// NoteID 笔记编号, 只发放一次且不会回绕
type NoteID uint32

// MaxNoteID is the largest representable note id.
const MaxNoteID NoteID = math.MaxUint32

// Next returns id+1, or false when that would overflow.
// Next 返回 id+1, 溢出时返回 false
func (id NoteID) Next() (NoteID, bool) {
	if id == MaxNoteID {
		return id, false
	}
	return id + 1, true
}

func (id NoteID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Note is the opaque payload of a registry record. An empty payload is a valid note.
// Note 笔记内容, 空内容也是合法的笔记
type Note []byte

// Clone copies the payload so stored notes never alias caller buffers.
func (n Note) Clone() Note {
	if n == nil {
		return Note{}
	}
	c := make(Note, len(n))
	copy(c, n)
	return c
}

func (n Note) Equal(o Note) bool {
	return bytes.Equal(n, o)
}

// NoteRecord is one entry of the registry table.
// NoteRecord 注册表中的一条记录
type NoteRecord struct {
	Owner     Identity
	ID        NoteID
	Note      Note
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RegistryStats 注册表统计
type RegistryStats struct {
	NextID       NoteID
	Notes        int64
	Owners       int64
	LastEventSeq int64
}

// Snapshot is a point-in-time copy of the whole registry.
// Snapshot 注册表的完整快照
type Snapshot struct {
	NextID       NoteID
	Notes        []*NoteRecord
	LastEventSeq int64
	TakenAt      time.Time
}
