package domain

import "time"

// EventKind 事件类型
type EventKind string

const (
	EventNoteCreated     EventKind = "NoteCreated"
	EventNoteTransferred EventKind = "NoteTransferred"
)

// Event is emitted by a successful registry operation.
// Seq and CreatedAt are assigned when the event is appended to the log.
// Event 由成功的注册表操作产生, Seq 与 CreatedAt 在写入事件日志时分配
type Event struct {
	Seq    int64
	Kind   EventKind
	Owner  Identity // creator, or sender of a transfer
	To     Identity // recipient of a transfer
	NoteID NoteID
	// Note is set for NoteCreated only
	Note      Note
	TraceID   string
	CreatedAt time.Time
}

// NoteCreated builds the event for a newly created note.
func NoteCreated(owner Identity, id NoteID, note Note) Event {
	return Event{Kind: EventNoteCreated, Owner: owner, NoteID: id, Note: note}
}

// NoteTransferred builds the event for a note moved from one owner to another.
func NoteTransferred(from, to Identity, id NoteID) Event {
	return Event{Kind: EventNoteTransferred, Owner: from, To: to, NoteID: id}
}
