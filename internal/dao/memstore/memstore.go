// Package memstore is an in-memory registry store.
// A transaction stages its writes and applies them only when it succeeds.
// Package memstore 内存注册表存储, 事务暂存写入, 成功后才应用
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/haierkeys/note-registry-service/internal/domain"
)

type noteKey struct {
	owner domain.Identity
	id    domain.NoteID
}

// Store implements domain.RegistryRepository and domain.SchemaRepository in memory
// Store 在内存中实现注册表仓储
type Store struct {
	mu            sync.RWMutex
	nextID        domain.NoteID
	notes         map[noteKey]*domain.NoteRecord
	owners        map[domain.NoteID]domain.Identity
	events        []domain.Event
	schemaVersion string
	now           func() time.Time
}

var (
	_ domain.RegistryRepository = (*Store)(nil)
	_ domain.SchemaRepository   = (*Store)(nil)
)

func New() *Store {
	return &Store{
		notes:  make(map[noteKey]*domain.NoteRecord),
		owners: make(map[domain.NoteID]domain.Identity),
		now:    time.Now,
	}
}

// SetNextNoteID seeds the counter, for tests and restores
// SetNextNoteID 设置计数器初始值
func (s *Store) SetNextNoteID(id domain.NoteID) {
	s.mu.Lock()
	s.nextID = id
	s.mu.Unlock()
}

// Atomic runs fn with the store locked. Staged writes are applied only if fn returns nil.
// Atomic 加锁执行 fn, fn 返回 nil 时才应用暂存的写入
func (s *Store) Atomic(ctx context.Context, fn func(tx domain.RegistryTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := &tx{store: s, staged: make(map[noteKey]*domain.NoteRecord)}
	if err := fn(t); err != nil {
		return err
	}
	t.apply()
	return nil
}

func (s *Store) NextNoteID(ctx context.Context) (domain.NoteID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextID, nil
}

func (s *Store) GetNote(ctx context.Context, owner domain.Identity, id domain.NoteID) (*domain.NoteRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneRecord(s.notes[noteKey{owner, id}]), nil
}

func (s *Store) OwnerOf(ctx context.Context, id domain.NoteID) (domain.Identity, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owner, ok := s.owners[id]
	return owner, ok, nil
}

func (s *Store) ListByOwner(ctx context.Context, owner domain.Identity, offset, limit int) ([]*domain.NoteRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var list []*domain.NoteRecord
	for k, r := range s.notes {
		if k.owner == owner {
			list = append(list, r)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })

	if offset >= len(list) {
		return []*domain.NoteRecord{}, nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}

	out := make([]*domain.NoteRecord, 0, len(list))
	for _, r := range list {
		out = append(out, cloneRecord(r))
	}
	return out, nil
}

func (s *Store) CountByOwner(ctx context.Context, owner domain.Identity) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for k := range s.notes {
		if k.owner == owner {
			n++
		}
	}
	return n, nil
}

func (s *Store) ListEvents(ctx context.Context, afterSeq int64, limit int) ([]*domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// seq n lives at index n-1
	start := int(afterSeq)
	if start < 0 {
		start = 0
	}
	out := []*domain.Event{}
	for i := start; i < len(s.events); i++ {
		if limit > 0 && len(out) >= limit {
			break
		}
		e := s.events[i]
		e.Note = e.Note.Clone()
		out = append(out, &e)
	}
	return out, nil
}

func (s *Store) Stats(ctx context.Context) (*domain.RegistryStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owners := make(map[domain.Identity]struct{})
	for k := range s.notes {
		owners[k.owner] = struct{}{}
	}
	return &domain.RegistryStats{
		NextID:       s.nextID,
		Notes:        int64(len(s.notes)),
		Owners:       int64(len(owners)),
		LastEventSeq: int64(len(s.events)),
	}, nil
}

func (s *Store) Snapshot(ctx context.Context) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &domain.Snapshot{
		NextID:       s.nextID,
		Notes:        make([]*domain.NoteRecord, 0, len(s.notes)),
		LastEventSeq: int64(len(s.events)),
		TakenAt:      s.now(),
	}
	for _, r := range s.notes {
		snap.Notes = append(snap.Notes, cloneRecord(r))
	}
	sort.Slice(snap.Notes, func(i, j int) bool { return snap.Notes[i].ID < snap.Notes[j].ID })
	return snap, nil
}

func (s *Store) GetSchemaVersion(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.schemaVersion, nil
}

func (s *Store) SetSchemaVersion(ctx context.Context, version string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schemaVersion = version
	return nil
}

// tx is the staged view used inside Atomic. The store lock is held for its whole life.
// tx 是 Atomic 内使用的暂存视图, 整个生命周期内持有存储锁
type tx struct {
	store *Store

	nextID    domain.NoteID
	nextIDSet bool

	// nil value marks a removal
	staged map[noteKey]*domain.NoteRecord
	events []domain.Event
}

func (t *tx) NextNoteID(ctx context.Context) (domain.NoteID, error) {
	if t.nextIDSet {
		return t.nextID, nil
	}
	return t.store.nextID, nil
}

func (t *tx) SetNextNoteID(ctx context.Context, id domain.NoteID) error {
	t.nextID = id
	t.nextIDSet = true
	return nil
}

func (t *tx) lookup(k noteKey) *domain.NoteRecord {
	if r, ok := t.staged[k]; ok {
		return r
	}
	return t.store.notes[k]
}

func (t *tx) GetNote(ctx context.Context, owner domain.Identity, id domain.NoteID) (*domain.NoteRecord, error) {
	return cloneRecord(t.lookup(noteKey{owner, id})), nil
}

// ownerOf returns the owner of id as seen through the staged writes
func (t *tx) ownerOf(id domain.NoteID) (domain.Identity, bool) {
	for k, r := range t.staged {
		if k.id == id && r != nil {
			return k.owner, true
		}
	}
	owner, ok := t.store.owners[id]
	if !ok {
		return "", false
	}
	if t.lookup(noteKey{owner, id}) == nil {
		return "", false
	}
	return owner, true
}

func (t *tx) InsertNote(ctx context.Context, owner domain.Identity, id domain.NoteID, note domain.Note) error {
	if _, taken := t.ownerOf(id); taken {
		return domain.ErrNoteExists
	}

	now := t.store.now()
	createdAt := now
	// a moved note keeps its creation time
	if prev, ok := t.store.owners[id]; ok {
		if r := t.store.notes[noteKey{prev, id}]; r != nil {
			createdAt = r.CreatedAt
		}
	}

	t.staged[noteKey{owner, id}] = &domain.NoteRecord{
		Owner:     owner,
		ID:        id,
		Note:      note.Clone(),
		CreatedAt: createdAt,
		UpdatedAt: now,
	}
	return nil
}

func (t *tx) RemoveNote(ctx context.Context, owner domain.Identity, id domain.NoteID) error {
	t.staged[noteKey{owner, id}] = nil
	return nil
}

func (t *tx) AppendEvents(ctx context.Context, events []domain.Event) ([]domain.Event, error) {
	out := make([]domain.Event, len(events))
	base := int64(len(t.store.events) + len(t.events))
	now := t.store.now()
	for i, e := range events {
		e.Seq = base + int64(i) + 1
		e.CreatedAt = now
		e.Note = e.Note.Clone()
		out[i] = e
	}
	t.events = append(t.events, out...)
	return out, nil
}

func (t *tx) apply() {
	s := t.store
	if t.nextIDSet {
		s.nextID = t.nextID
	}
	// removals first so a moved id ends up under its new owner
	for k, r := range t.staged {
		if r == nil {
			delete(s.notes, k)
			if s.owners[k.id] == k.owner {
				delete(s.owners, k.id)
			}
		}
	}
	for k, r := range t.staged {
		if r != nil {
			s.notes[k] = r
			s.owners[k.id] = k.owner
		}
	}
	s.events = append(s.events, t.events...)
}

func cloneRecord(r *domain.NoteRecord) *domain.NoteRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.Note = r.Note.Clone()
	return &c
}
