package model

import "github.com/haierkeys/note-registry-service/pkg/timex"

const (
	TableNameRegistryCounter = "registry_counter"
	TableNameRegistryNote    = "registry_note"
	TableNameRegistryEvent   = "registry_event"
	TableNameRegistryMeta    = "registry_meta"
)

// CounterNextNoteID is the counter row holding the next note id
const CounterNextNoteID = "next_note_id"

// RegistryCounter mapped from table <registry_counter>
type RegistryCounter struct {
	Name  string `gorm:"column:name;primaryKey;size:64" json:"name"`
	Value int64  `gorm:"column:value;not null;default:0" json:"value"`
}

func (*RegistryCounter) TableName() string {
	return TableNameRegistryCounter
}

// RegistryNote mapped from table <registry_note>
// The unique index on note_id keeps an id under a single owner.
type RegistryNote struct {
	Owner     string     `gorm:"column:owner;primaryKey;size:191" json:"owner"`
	NoteID    int64      `gorm:"column:note_id;primaryKey;autoIncrement:false;uniqueIndex:uk_registry_note_id" json:"noteId"`
	Payload   []byte     `gorm:"column:payload" json:"payload"`
	CreatedAt timex.Time `gorm:"column:created_at;autoCreateTime:false" json:"createdAt"`
	UpdatedAt timex.Time `gorm:"column:updated_at;autoUpdateTime:false" json:"updatedAt"`
}

func (*RegistryNote) TableName() string {
	return TableNameRegistryNote
}

// RegistryEvent mapped from table <registry_event>
type RegistryEvent struct {
	Seq       int64      `gorm:"column:seq;primaryKey;autoIncrement" json:"seq"`
	Kind      string     `gorm:"column:kind;size:32;not null" json:"kind"`
	Owner     string     `gorm:"column:owner;size:191;not null;index:idx_registry_event_owner" json:"owner"`
	Recipient string     `gorm:"column:recipient;size:191" json:"recipient"`
	NoteID    int64      `gorm:"column:note_id;not null;index:idx_registry_event_note" json:"noteId"`
	Payload   []byte     `gorm:"column:payload" json:"payload"`
	TraceID   string     `gorm:"column:trace_id;size:64" json:"traceId"`
	CreatedAt timex.Time `gorm:"column:created_at;autoCreateTime:false" json:"createdAt"`
}

func (*RegistryEvent) TableName() string {
	return TableNameRegistryEvent
}

// RegistryMeta mapped from table <registry_meta>
type RegistryMeta struct {
	Key   string `gorm:"column:meta_key;primaryKey;size:64" json:"key"`
	Value string `gorm:"column:meta_value" json:"value"`
}

func (*RegistryMeta) TableName() string {
	return TableNameRegistryMeta
}
