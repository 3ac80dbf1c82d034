package dao

import (
	"context"
	"time"

	"github.com/haierkeys/note-registry-service/internal/domain"
	"github.com/haierkeys/note-registry-service/internal/model"
	"github.com/haierkeys/note-registry-service/pkg/timex"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// registryRepository 实现 domain.RegistryRepository 接口
type registryRepository struct {
	dao *Dao
}

// NewRegistryRepository 创建 RegistryRepository 实例
func NewRegistryRepository(dao *Dao) domain.RegistryRepository {
	return &registryRepository{dao: dao}
}

var _ domain.RegistryRepository = (*registryRepository)(nil)

// Atomic 在一个数据库事务中执行 fn
func (r *registryRepository) Atomic(ctx context.Context, fn func(tx domain.RegistryTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.dao.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		return fn(&registryTx{db: db, movedCreatedAt: map[domain.NoteID]timex.Time{}})
	})
}

func (r *registryRepository) NextNoteID(ctx context.Context) (domain.NoteID, error) {
	return readNextNoteID(r.dao.WithContext(ctx))
}

func (r *registryRepository) GetNote(ctx context.Context, owner domain.Identity, id domain.NoteID) (*domain.NoteRecord, error) {
	return getNote(r.dao.WithContext(ctx), owner, id)
}

func (r *registryRepository) OwnerOf(ctx context.Context, id domain.NoteID) (domain.Identity, bool, error) {
	var m model.RegistryNote
	err := r.dao.WithContext(ctx).Select("owner").Where("note_id = ?", int64(id)).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return domain.Identity(m.Owner), true, nil
}

func (r *registryRepository) ListByOwner(ctx context.Context, owner domain.Identity, offset, limit int) ([]*domain.NoteRecord, error) {
	var ms []*model.RegistryNote
	q := r.dao.WithContext(ctx).Where("owner = ?", string(owner)).Order("note_id ASC").Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&ms).Error; err != nil {
		return nil, err
	}
	list := make([]*domain.NoteRecord, 0, len(ms))
	for _, m := range ms {
		list = append(list, noteToDomain(m))
	}
	return list, nil
}

func (r *registryRepository) CountByOwner(ctx context.Context, owner domain.Identity) (int64, error) {
	var n int64
	err := r.dao.WithContext(ctx).Model(&model.RegistryNote{}).Where("owner = ?", string(owner)).Count(&n).Error
	return n, err
}

func (r *registryRepository) ListEvents(ctx context.Context, afterSeq int64, limit int) ([]*domain.Event, error) {
	var ms []*model.RegistryEvent
	q := r.dao.WithContext(ctx).Where("seq > ?", afterSeq).Order("seq ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&ms).Error; err != nil {
		return nil, err
	}
	list := make([]*domain.Event, 0, len(ms))
	for _, m := range ms {
		list = append(list, eventToDomain(m))
	}
	return list, nil
}

func (r *registryRepository) Stats(ctx context.Context) (*domain.RegistryStats, error) {
	stats := &domain.RegistryStats{}
	err := r.dao.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		var err error
		if stats.NextID, err = readNextNoteID(db); err != nil {
			return err
		}
		if err := db.Model(&model.RegistryNote{}).Count(&stats.Notes).Error; err != nil {
			return err
		}
		if err := db.Model(&model.RegistryNote{}).Distinct("owner").Count(&stats.Owners).Error; err != nil {
			return err
		}
		stats.LastEventSeq, err = lastEventSeq(db)
		return err
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *registryRepository) Snapshot(ctx context.Context) (*domain.Snapshot, error) {
	snap := &domain.Snapshot{TakenAt: time.Now()}
	err := r.dao.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		var err error
		if snap.NextID, err = readNextNoteID(db); err != nil {
			return err
		}
		var ms []*model.RegistryNote
		if err := db.Order("note_id ASC").Find(&ms).Error; err != nil {
			return err
		}
		snap.Notes = make([]*domain.NoteRecord, 0, len(ms))
		for _, m := range ms {
			snap.Notes = append(snap.Notes, noteToDomain(m))
		}
		snap.LastEventSeq, err = lastEventSeq(db)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// registryTx 实现 domain.RegistryTx, 所有操作都在同一事务内
type registryTx struct {
	db *gorm.DB
	// creation time of notes removed in this transaction, reused when they are inserted again
	movedCreatedAt map[domain.NoteID]timex.Time
}

func (t *registryTx) NextNoteID(ctx context.Context) (domain.NoteID, error) {
	return readNextNoteID(t.db)
}

func (t *registryTx) SetNextNoteID(ctx context.Context, id domain.NoteID) error {
	return t.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&model.RegistryCounter{Name: model.CounterNextNoteID, Value: int64(id)}).Error
}

func (t *registryTx) GetNote(ctx context.Context, owner domain.Identity, id domain.NoteID) (*domain.NoteRecord, error) {
	return getNote(t.db, owner, id)
}

func (t *registryTx) InsertNote(ctx context.Context, owner domain.Identity, id domain.NoteID, note domain.Note) error {
	now := timex.Now()
	createdAt, moved := t.movedCreatedAt[id]
	if !moved {
		createdAt = now
	}
	err := t.db.Create(&model.RegistryNote{
		Owner:     string(owner),
		NoteID:    int64(id),
		Payload:   []byte(note.Clone()),
		CreatedAt: createdAt,
		UpdatedAt: now,
	}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrNoteExists
	}
	return err
}

func (t *registryTx) RemoveNote(ctx context.Context, owner domain.Identity, id domain.NoteID) error {
	var m model.RegistryNote
	err := t.db.Where("owner = ? AND note_id = ?", string(owner), int64(id)).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	t.movedCreatedAt[id] = m.CreatedAt
	return t.db.Where("owner = ? AND note_id = ?", string(owner), int64(id)).Delete(&model.RegistryNote{}).Error
}

func (t *registryTx) AppendEvents(ctx context.Context, events []domain.Event) ([]domain.Event, error) {
	if len(events) == 0 {
		return events, nil
	}
	now := timex.Now()
	ms := make([]*model.RegistryEvent, 0, len(events))
	for _, e := range events {
		ms = append(ms, &model.RegistryEvent{
			Kind:      string(e.Kind),
			Owner:     string(e.Owner),
			Recipient: string(e.To),
			NoteID:    int64(e.NoteID),
			Payload:   e.Note,
			TraceID:   e.TraceID,
			CreatedAt: now,
		})
	}
	if err := t.db.Create(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Event, 0, len(ms))
	for _, m := range ms {
		out = append(out, *eventToDomain(m))
	}
	return out, nil
}

func readNextNoteID(db *gorm.DB) (domain.NoteID, error) {
	var c model.RegistryCounter
	err := db.Where("name = ?", model.CounterNextNoteID).Take(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return domain.NoteID(c.Value), nil
}

func getNote(db *gorm.DB, owner domain.Identity, id domain.NoteID) (*domain.NoteRecord, error) {
	var m model.RegistryNote
	err := db.Where("owner = ? AND note_id = ?", string(owner), int64(id)).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return noteToDomain(&m), nil
}

func lastEventSeq(db *gorm.DB) (int64, error) {
	var seq int64
	err := db.Model(&model.RegistryEvent{}).Select("COALESCE(MAX(seq), 0)").Scan(&seq).Error
	return seq, err
}

// noteToDomain 将 DAO 模型转换为领域模型
func noteToDomain(m *model.RegistryNote) *domain.NoteRecord {
	if m == nil {
		return nil
	}
	payload := m.Payload
	if payload == nil {
		payload = []byte{}
	}
	return &domain.NoteRecord{
		Owner:     domain.Identity(m.Owner),
		ID:        domain.NoteID(m.NoteID),
		Note:      domain.Note(payload),
		CreatedAt: time.Time(m.CreatedAt),
		UpdatedAt: time.Time(m.UpdatedAt),
	}
}

func eventToDomain(m *model.RegistryEvent) *domain.Event {
	return &domain.Event{
		Seq:       m.Seq,
		Kind:      domain.EventKind(m.Kind),
		Owner:     domain.Identity(m.Owner),
		To:        domain.Identity(m.Recipient),
		NoteID:    domain.NoteID(m.NoteID),
		Note:      domain.Note(m.Payload),
		TraceID:   m.TraceID,
		CreatedAt: time.Time(m.CreatedAt),
	}
}
