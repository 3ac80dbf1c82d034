// Package domain 定义领域模型和接口
package domain

import "context"

// CounterCell holds the next note id.
// CounterCell 保存下一个笔记编号
type CounterCell interface {
	// NextNoteID 读取下一个编号, 未初始化时为 0
	NextNoteID(ctx context.Context) (NoteID, error)

	// SetNextNoteID 写入下一个编号
	SetNextNoteID(ctx context.Context, id NoteID) error
}

// RegistryTx is the view of storage an atomic registry operation works against.
// Nothing written through it is visible outside until the surrounding Atomic call succeeds.
// RegistryTx 原子操作使用的存储视图, Atomic 成功前写入对外不可见
type RegistryTx interface {
	CounterCell

	// GetNote 获取 (owner, id) 对应的记录, 不存在时返回 nil, nil
	GetNote(ctx context.Context, owner Identity, id NoteID) (*NoteRecord, error)

	// InsertNote 插入记录, 已存在时返回错误
	InsertNote(ctx context.Context, owner Identity, id NoteID, note Note) error

	// RemoveNote 删除记录
	RemoveNote(ctx context.Context, owner Identity, id NoteID) error

	// AppendEvents 追加事件并返回分配了序号的事件
	AppendEvents(ctx context.Context, events []Event) ([]Event, error)
}

// RegistryRepository 注册表仓储接口
type RegistryRepository interface {
	// Atomic runs fn in one transaction. If fn returns an error nothing is applied.
	// Atomic 在同一事务中执行 fn, fn 返回错误时全部回滚
	Atomic(ctx context.Context, fn func(tx RegistryTx) error) error

	// NextNoteID 读取下一个笔记编号
	NextNoteID(ctx context.Context) (NoteID, error)

	// GetNote 获取记录, 不存在时返回 nil, nil
	GetNote(ctx context.Context, owner Identity, id NoteID) (*NoteRecord, error)

	// OwnerOf 返回编号的持有者
	OwnerOf(ctx context.Context, id NoteID) (Identity, bool, error)

	// ListByOwner 按编号升序分页列出持有者的记录
	ListByOwner(ctx context.Context, owner Identity, offset, limit int) ([]*NoteRecord, error)

	// CountByOwner 统计持有者的记录数
	CountByOwner(ctx context.Context, owner Identity) (int64, error)

	// ListEvents 列出序号大于 afterSeq 的事件
	ListEvents(ctx context.Context, afterSeq int64, limit int) ([]*Event, error)

	// Stats 注册表统计
	Stats(ctx context.Context) (*RegistryStats, error)

	// Snapshot 导出完整快照
	Snapshot(ctx context.Context) (*Snapshot, error)
}

// SchemaRepository records the applied schema version.
// SchemaRepository 记录已应用的数据库结构版本
type SchemaRepository interface {
	GetSchemaVersion(ctx context.Context) (string, error)
	SetSchemaVersion(ctx context.Context, version string) error
}
