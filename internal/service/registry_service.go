package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/haierkeys/note-registry-service/internal/domain"
	"github.com/haierkeys/note-registry-service/pkg/app"
	"github.com/haierkeys/note-registry-service/pkg/code"
	"github.com/haierkeys/note-registry-service/pkg/convert"
	"github.com/haierkeys/note-registry-service/pkg/logger"
	"github.com/haierkeys/note-registry-service/pkg/timex"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// registryWriteKey is the write queue every registry mutation shares.
// The allocator counter is global, so all writes are serialized on one key.
// registryWriteKey 所有注册表写操作共用的写队列键, 计数器是全局的所以只用一个键
const registryWriteKey int64 = 0

const defaultEventPageLimit = 100

// WriteExecutor serializes write operations
// WriteExecutor 串行执行写操作
type WriteExecutor interface {
	Execute(ctx context.Context, key int64, fn func() error) error
}

// EventPublisher delivers committed events to live subscribers
// EventPublisher 把已提交的事件推送给订阅者
type EventPublisher interface {
	Publish(ctx context.Context, events []domain.Event)
}

// RegistryService 笔记注册表业务服务接口
type RegistryService interface {
	// Create issues a new note id to caller and stores payload under it
	// Create 为调用者分配新编号并保存内容
	Create(ctx context.Context, caller domain.Identity, payload []byte) (domain.NoteID, []domain.Event, error)

	// Transfer moves note id from caller to to
	// Transfer 把笔记从调用者转移给 to
	Transfer(ctx context.Context, caller, to domain.Identity, id domain.NoteID) ([]domain.Event, error)

	// Get 获取 (owner, id) 对应的笔记
	Get(ctx context.Context, owner domain.Identity, id domain.NoteID) (*NoteDTO, error)

	// NextID 返回下一个将要分配的编号
	NextID(ctx context.Context) (domain.NoteID, error)

	// OwnerOf 返回编号的持有者
	OwnerOf(ctx context.Context, id domain.NoteID) (domain.Identity, error)

	// ListByOwner 分页列出持有者的笔记
	ListByOwner(ctx context.Context, owner domain.Identity, pager *app.Pager) ([]*NoteDTO, int, error)

	// Events 列出序号大于 afterSeq 的事件
	Events(ctx context.Context, afterSeq int64, limit int) ([]*EventDTO, error)

	// Stats 注册表统计
	Stats(ctx context.Context) (*RegistryStatsDTO, error)

	// Snapshot 导出注册表快照
	Snapshot(ctx context.Context) (*SnapshotDTO, error)
}

// NoteDTO 笔记数据传输对象
type NoteDTO struct {
	Owner string `json:"owner"`
	ID    uint32 `json:"id"`
	// Payload is set when the note is valid UTF-8
	// Payload 内容为合法 UTF-8 时才设置
	Payload       string     `json:"payload,omitempty"`
	PayloadBase64 []byte     `json:"payloadBase64"`
	Size          int        `json:"size"`
	CreatedAt     timex.Time `json:"createdAt"`
	UpdatedAt     timex.Time `json:"updatedAt"`
}

// EventDTO 事件数据传输对象
type EventDTO struct {
	Seq           int64      `json:"seq"`
	Kind          string     `json:"kind"`
	Owner         string     `json:"owner"`
	To            string     `json:"to,omitempty"`
	NoteID        uint32     `json:"noteId"`
	PayloadBase64 []byte     `json:"payloadBase64,omitempty"`
	TraceID       string     `json:"traceId,omitempty"`
	CreatedAt     timex.Time `json:"createdAt"`
}

// Parties returns the identities an event concerns
// Parties 返回事件涉及的身份
func (e *EventDTO) Parties() []string {
	if e.To == "" || e.To == e.Owner {
		return []string{e.Owner}
	}
	return []string{e.Owner, e.To}
}

// RegistryStatsDTO 注册表统计
type RegistryStatsDTO struct {
	NextID       uint32 `json:"nextId"`
	Notes        int64  `json:"notes"`
	Owners       int64  `json:"owners"`
	LastEventSeq int64  `json:"lastEventSeq"`
}

// SnapshotNoteDTO 快照中的一条记录
type SnapshotNoteDTO struct {
	Owner   string `json:"owner"`
	ID      uint32 `json:"id"`
	Payload []byte `json:"payload"`
}

// SnapshotDTO 注册表快照
type SnapshotDTO struct {
	NextID       uint32             `json:"nextId"`
	Notes        []*SnapshotNoteDTO `json:"notes"`
	LastEventSeq int64              `json:"lastEventSeq"`
	TakenAt      timex.Time         `json:"takenAt"`
}

// registryService 实现 RegistryService 接口
type registryService struct {
	repo      domain.RegistryRepository
	alloc     *Allocator
	writer    WriteExecutor
	publisher EventPublisher
	logger    *zap.Logger
	sf        *singleflight.Group
	config    *ServiceConfig
}

// NewRegistryService creates the registry service.
// writer and publisher may be nil: writes then run on the calling goroutine and events are not pushed.
// NewRegistryService 创建注册表服务, writer 与 publisher 可以为 nil
func NewRegistryService(repo domain.RegistryRepository, writer WriteExecutor, publisher EventPublisher, lg *zap.Logger, config *ServiceConfig) RegistryService {
	if lg == nil {
		lg = zap.NewNop()
	}
	if config == nil {
		config = &ServiceConfig{}
	}
	return &registryService{
		repo:      repo,
		alloc:     NewAllocator(),
		writer:    writer,
		publisher: publisher,
		logger:    lg,
		sf:        &singleflight.Group{},
		config:    config,
	}
}

func (s *registryService) write(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.writer == nil {
		return fn()
	}
	return s.writer.Execute(ctx, registryWriteKey, fn)
}

// Create 创建笔记
func (s *registryService) Create(ctx context.Context, caller domain.Identity, payload []byte) (domain.NoteID, []domain.Event, error) {
	start := time.Now()
	if caller == "" {
		return 0, nil, s.fail(ctx, "create", code.ErrorUnauthorized)
	}
	if maxSize := s.config.Registry.MaxPayloadSize; maxSize > 0 && len(payload) > maxSize {
		return 0, nil, s.fail(ctx, "create", code.ErrorInvalidParams.WithDetails(fmt.Sprintf("payload exceeds %d bytes", maxSize)))
	}

	traceID := logger.TraceIDFromContext(ctx)

	var (
		id     domain.NoteID
		events []domain.Event
	)
	err := s.write(ctx, func() error {
		return s.repo.Atomic(ctx, func(tx domain.RegistryTx) error {
			var err error
			id, events, err = createNote(ctx, tx, s.alloc, caller, payload)
			if err != nil {
				return err
			}
			events, err = tx.AppendEvents(ctx, withTraceID(events, traceID))
			return err
		})
	})
	if err != nil {
		return 0, nil, s.fail(ctx, "create", err, zap.String(logger.FieldIdentity, caller.String()))
	}

	notesCreated.Inc()
	fields := []zap.Field{
		zap.String(logger.FieldIdentity, caller.String()),
		zap.Uint32(logger.FieldNoteID, uint32(id)),
		zap.Duration(logger.FieldDuration, time.Since(start)),
	}
	if s.config.Registry.LogNotePayloads {
		fields = append(fields, zap.Int(logger.FieldSize, len(payload)))
	}
	logger.WithTrace(ctx, s.logger).Info("note created", fields...)

	s.publish(ctx, events)
	return id, events, nil
}

// Transfer 转移笔记
func (s *registryService) Transfer(ctx context.Context, caller, to domain.Identity, id domain.NoteID) ([]domain.Event, error) {
	start := time.Now()
	if caller == "" {
		return nil, s.fail(ctx, "transfer", code.ErrorUnauthorized)
	}

	traceID := logger.TraceIDFromContext(ctx)

	var events []domain.Event
	err := s.write(ctx, func() error {
		return s.repo.Atomic(ctx, func(tx domain.RegistryTx) error {
			var err error
			events, err = transferNote(ctx, tx, caller, to, id)
			if err != nil || len(events) == 0 {
				return err
			}
			events, err = tx.AppendEvents(ctx, withTraceID(events, traceID))
			return err
		})
	})
	if err != nil {
		return nil, s.fail(ctx, "transfer", err,
			zap.String(logger.FieldIdentity, caller.String()),
			zap.String(logger.FieldRecipient, to.String()),
			zap.Uint32(logger.FieldNoteID, uint32(id)))
	}

	lg := logger.WithTrace(ctx, s.logger).With(
		zap.String(logger.FieldIdentity, caller.String()),
		zap.String(logger.FieldRecipient, to.String()),
		zap.Uint32(logger.FieldNoteID, uint32(id)),
		zap.Duration(logger.FieldDuration, time.Since(start)),
	)
	if len(events) == 0 {
		lg.Debug("note transfer to self, nothing changed")
		return nil, nil
	}

	notesTransferred.Inc()
	lg.Info("note transferred")
	s.publish(ctx, events)
	return events, nil
}

// fail records a failed operation and returns err unchanged
// fail 记录失败的操作并原样返回 err
func (s *registryService) fail(ctx context.Context, op string, err error, fields ...zap.Field) error {
	kind := errorKind(err)
	registryErrors.WithLabelValues(op, kind).Inc()

	fields = append(fields, zap.String(logger.FieldAction, op), zap.Error(err))
	lg := logger.WithTrace(ctx, s.logger)
	if kind == "internal" {
		lg.Error("registry operation failed", fields...)
	} else {
		lg.Debug("registry operation rejected", fields...)
	}
	return err
}

func (s *registryService) publish(ctx context.Context, events []domain.Event) {
	if s.publisher == nil || !s.config.Registry.PublishEvents || len(events) == 0 {
		return
	}
	s.publisher.Publish(ctx, events)
}

func withTraceID(events []domain.Event, traceID string) []domain.Event {
	if traceID == "" {
		return events
	}
	for i := range events {
		events[i].TraceID = traceID
	}
	return events
}

// Get 获取笔记
func (s *registryService) Get(ctx context.Context, owner domain.Identity, id domain.NoteID) (*NoteDTO, error) {
	record, err := s.repo.GetNote(ctx, owner, id)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	if record == nil {
		return nil, code.ErrorNoteNotFound
	}
	return noteToDTO(record), nil
}

// NextID 返回下一个编号
func (s *registryService) NextID(ctx context.Context) (domain.NoteID, error) {
	id, err := s.repo.NextNoteID(ctx)
	if err != nil {
		return 0, code.ErrorDBQuery.WithDetails(err.Error())
	}
	return id, nil
}

// OwnerOf 返回持有者
func (s *registryService) OwnerOf(ctx context.Context, id domain.NoteID) (domain.Identity, error) {
	owner, ok, err := s.repo.OwnerOf(ctx, id)
	if err != nil {
		return "", code.ErrorDBQuery.WithDetails(err.Error())
	}
	if !ok {
		return "", code.ErrorNoteNotFound
	}
	return owner, nil
}

// ListByOwner 分页列出笔记
func (s *registryService) ListByOwner(ctx context.Context, owner domain.Identity, pager *app.Pager) ([]*NoteDTO, int, error) {
	if owner == "" {
		return nil, 0, code.ErrorUnauthorized
	}

	count, err := s.repo.CountByOwner(ctx, owner)
	if err != nil {
		return nil, 0, code.ErrorDBQuery.WithDetails(err.Error())
	}

	records, err := s.repo.ListByOwner(ctx, owner, app.GetPageOffset(pager.Page, pager.PageSize), pager.PageSize)
	if err != nil {
		return nil, 0, code.ErrorDBQuery.WithDetails(err.Error())
	}

	list := make([]*NoteDTO, 0, len(records))
	for _, r := range records {
		list = append(list, noteToDTO(r))
	}
	return list, int(count), nil
}

// Events 列出事件
func (s *registryService) Events(ctx context.Context, afterSeq int64, limit int) ([]*EventDTO, error) {
	pageLimit := s.config.Registry.EventPageLimit
	if pageLimit <= 0 {
		pageLimit = defaultEventPageLimit
	}
	if limit <= 0 || limit > pageLimit {
		limit = pageLimit
	}
	if afterSeq < 0 {
		afterSeq = 0
	}

	events, err := s.repo.ListEvents(ctx, afterSeq, limit)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}

	list := make([]*EventDTO, 0, len(events))
	for _, e := range events {
		list = append(list, EventToDTO(e))
	}
	return list, nil
}

// Stats 注册表统计, 并发调用合并为一次查询
func (s *registryService) Stats(ctx context.Context) (*RegistryStatsDTO, error) {
	v, err, _ := s.sf.Do("stats", func() (interface{}, error) {
		stats, err := s.repo.Stats(ctx)
		if err != nil {
			return nil, err
		}
		out := &RegistryStatsDTO{}
		if err := convert.StructAssign(stats, out); err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	stats := v.(*RegistryStatsDTO)
	ObserveStats(stats)
	return stats, nil
}

// Snapshot 导出快照
func (s *registryService) Snapshot(ctx context.Context) (*SnapshotDTO, error) {
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}

	out := &SnapshotDTO{
		NextID:       uint32(snap.NextID),
		Notes:        make([]*SnapshotNoteDTO, 0, len(snap.Notes)),
		LastEventSeq: snap.LastEventSeq,
		TakenAt:      timex.Time(snap.TakenAt),
	}
	for _, n := range snap.Notes {
		out.Notes = append(out.Notes, &SnapshotNoteDTO{
			Owner:   n.Owner.String(),
			ID:      uint32(n.ID),
			Payload: n.Note,
		})
	}
	return out, nil
}

// noteToDTO 将领域模型转换为 DTO
func noteToDTO(r *domain.NoteRecord) *NoteDTO {
	if r == nil {
		return nil
	}
	dto := &NoteDTO{
		Owner:         r.Owner.String(),
		ID:            uint32(r.ID),
		PayloadBase64: r.Note,
		Size:          len(r.Note),
		CreatedAt:     timex.Time(r.CreatedAt),
		UpdatedAt:     timex.Time(r.UpdatedAt),
	}
	if utf8.Valid(r.Note) {
		dto.Payload = string(r.Note)
	}
	return dto
}

// EventToDTO 将事件转换为 DTO
func EventToDTO(e *domain.Event) *EventDTO {
	if e == nil {
		return nil
	}
	return &EventDTO{
		Seq:           e.Seq,
		Kind:          string(e.Kind),
		Owner:         e.Owner.String(),
		To:            e.To.String(),
		NoteID:        uint32(e.NoteID),
		PayloadBase64: e.Note,
		TraceID:       e.TraceID,
		CreatedAt:     timex.Time(e.CreatedAt),
	}
}

// IsRegistryError reports whether err is one of the registry's own rejections
// IsRegistryError 判断是否为注册表的业务错误
func IsRegistryError(err error) bool {
	return errors.Is(err, code.ErrorUnauthorized) ||
		errors.Is(err, code.ErrorIDSpaceExhausted) ||
		errors.Is(err, code.ErrorInvalidNoteID)
}
