package api_router

import (
	"github.com/haierkeys/note-registry-service/internal/app"
	"github.com/haierkeys/note-registry-service/internal/domain"
	"github.com/haierkeys/note-registry-service/internal/dto"
	"github.com/haierkeys/note-registry-service/internal/service"
	pkgapp "github.com/haierkeys/note-registry-service/pkg/app"
	"github.com/haierkeys/note-registry-service/pkg/code"
	apperrors "github.com/haierkeys/note-registry-service/pkg/errors"
	"github.com/haierkeys/note-registry-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RegistryHandler note registry API router handler
// RegistryHandler 笔记注册表 API 路由处理器
type RegistryHandler struct {
	*Handler
}

// NewRegistryHandler 创建 RegistryHandler 实例
func NewRegistryHandler(a *app.App) *RegistryHandler {
	return &RegistryHandler{
		Handler: NewHandler(a),
	}
}

// Create 创建笔记
// @Summary Create a note
// @Description Register a new note owned by the caller, the id comes from the registry counter
// @Tags Note
// @Security IdentityAuthToken
// @Param token header string true "Auth token"
// @Accept json
// @Produce json
// @Param params body dto.NoteCreateRequest true "Create parameters"
// @Success 200 {object} pkgapp.Res{data=dto.NoteCreateResponse} "Success"
// @Failure 401 {object} pkgapp.Res "Unauthorized"
// @Failure 409 {object} pkgapp.Res "Id space exhausted"
// @Router /api/note [post]
func (h *RegistryHandler) Create(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.NoteCreateRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Warn("RegistryHandler.Create.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...))
		return
	}

	payload := params.Bytes()
	if limit := h.App.Config().Registry.MaxPayloadSize; limit > 0 && len(payload) > limit {
		response.ToResponse(code.ErrorInvalidParams.WithDetails("payload is too large"))
		return
	}

	ctx := c.Request.Context()
	caller := domain.Identity(pkgapp.GetIdentity(c))

	id, _, err := h.App.RegistryService.Create(ctx, caller, payload)
	if err != nil {
		h.logError(ctx, "RegistryHandler.Create", err, zap.String(logger.FieldIdentity, caller.String()))
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.SuccessCreate.WithData(dto.NoteCreateResponse{ID: uint32(id)}))
}

// Transfer 转移笔记
// @Summary Transfer a note
// @Description Move a note held by the caller to another identity, the id is kept
// @Tags Note
// @Security IdentityAuthToken
// @Param token header string true "Auth token"
// @Accept json
// @Produce json
// @Param params body dto.NoteTransferRequest true "Transfer parameters"
// @Success 200 {object} pkgapp.Res{data=[]service.EventDTO} "Success"
// @Failure 404 {object} pkgapp.Res "The caller does not hold the note"
// @Router /api/note/transfer [post]
func (h *RegistryHandler) Transfer(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.NoteTransferRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Warn("RegistryHandler.Transfer.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...))
		return
	}

	ctx := c.Request.Context()
	caller := domain.Identity(pkgapp.GetIdentity(c))
	id := domain.NoteID(*params.ID)

	events, err := h.App.RegistryService.Transfer(ctx, caller, domain.Identity(params.To), id)
	if err != nil {
		h.logError(ctx, "RegistryHandler.Transfer", err,
			zap.String(logger.FieldIdentity, caller.String()),
			zap.String(logger.FieldRecipient, params.To),
			zap.Uint32(logger.FieldNoteID, uint32(id)))
		apperrors.ErrorResponse(c, err)
		return
	}

	list := make([]*service.EventDTO, 0, len(events))
	for i := range events {
		list = append(list, service.EventToDTO(&events[i]))
	}

	// 转给自己时没有事件
	if len(list) == 0 {
		response.ToResponse(code.SuccessNoUpdate.WithData(list))
		return
	}
	response.ToResponse(code.SuccessTransfer.WithData(list))
}

// Get 获取单条笔记
// @Summary Get a note
// @Description Read the note stored under (owner, id), owner defaults to the caller
// @Tags Note
// @Produce json
// @Param params query dto.NoteGetRequest true "Query parameters"
// @Success 200 {object} pkgapp.Res{data=service.NoteDTO} "Success"
// @Failure 404 {object} pkgapp.Res "Note not found"
// @Router /api/note [get]
func (h *RegistryHandler) Get(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.NoteGetRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Warn("RegistryHandler.Get.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...))
		return
	}

	owner := params.Owner
	if owner == "" {
		owner = pkgapp.GetIdentity(c)
	}
	if owner == "" {
		response.ToResponse(code.ErrorInvalidParams.WithDetails("owner is required"))
		return
	}

	ctx := c.Request.Context()
	note, err := h.App.RegistryService.Get(ctx, domain.Identity(owner), domain.NoteID(*params.ID))
	if err != nil {
		h.logError(ctx, "RegistryHandler.Get", err, zap.String(logger.FieldIdentity, owner))
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(note))
}

// List 获取调用者持有的笔记列表
// @Summary List own notes
// @Description Page through the notes held by the caller, ordered by id
// @Tags Note
// @Security IdentityAuthToken
// @Param token header string true "Auth token"
// @Produce json
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} pkgapp.Res{data=pkgapp.ListRes{list=[]service.NoteDTO}} "Success"
// @Router /api/notes [get]
func (h *RegistryHandler) List(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	pager := &pkgapp.Pager{
		Page:     pkgapp.GetPage(c),
		PageSize: pkgapp.GetPageSizeWithConfig(c, h.App.Config().GetPaginationConfig()),
	}

	ctx := c.Request.Context()
	caller := pkgapp.GetIdentity(c)

	list, count, err := h.App.RegistryService.ListByOwner(ctx, domain.Identity(caller), pager)
	if err != nil {
		h.logError(ctx, "RegistryHandler.List", err, zap.String(logger.FieldIdentity, caller))
		apperrors.ErrorResponse(c, err)
		return
	}

	pager.TotalRows = count
	response.ToResponse(code.Success.WithData(pkgapp.ListRes{List: list, Pager: *pager}))
}

// NextID 返回下一个将被分配的编号
// @Summary Next note id
// @Description The id the next successful create will receive
// @Tags Note
// @Produce json
// @Success 200 {object} pkgapp.Res{data=dto.NextIDResponse} "Success"
// @Router /api/note/next_id [get]
func (h *RegistryHandler) NextID(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	ctx := c.Request.Context()

	id, err := h.App.RegistryService.NextID(ctx)
	if err != nil {
		h.logError(ctx, "RegistryHandler.NextID", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	_, ok := id.Next()
	response.ToResponse(code.Success.WithData(dto.NextIDResponse{NextID: uint32(id), Exhausted: !ok}))
}

// Owner 查询编号的持有者
// @Summary Owner of a note id
// @Tags Note
// @Produce json
// @Param params query dto.NoteOwnerRequest true "Query parameters"
// @Success 200 {object} pkgapp.Res{data=dto.NoteOwnerResponse} "Success"
// @Failure 404 {object} pkgapp.Res "Note not found"
// @Router /api/note/owner [get]
func (h *RegistryHandler) Owner(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.NoteOwnerRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...))
		return
	}

	ctx := c.Request.Context()
	owner, err := h.App.RegistryService.OwnerOf(ctx, domain.NoteID(*params.ID))
	if err != nil {
		h.logError(ctx, "RegistryHandler.Owner", err, zap.Uint32(logger.FieldNoteID, *params.ID))
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(dto.NoteOwnerResponse{ID: *params.ID, Owner: owner.String()}))
}

// Events 分页读取事件日志
// @Summary Registry event log
// @Description Events with a sequence number greater than afterSeq, oldest first
// @Tags Event
// @Produce json
// @Param params query dto.EventListRequest false "Query parameters"
// @Success 200 {object} pkgapp.Res{data=dto.EventListResponse} "Success"
// @Router /api/events [get]
func (h *RegistryHandler) Events(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.EventListRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.Errors()...))
		return
	}

	ctx := c.Request.Context()
	list, err := h.App.RegistryService.Events(ctx, params.AfterSeq, params.Limit)
	if err != nil {
		h.logError(ctx, "RegistryHandler.Events", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	next := params.AfterSeq
	if n := len(list); n > 0 {
		next = list[n-1].Seq
	}
	response.ToResponse(code.Success.WithData(dto.EventListResponse{List: list, NextSeq: next}))
}

// Stats 注册表统计
// @Summary Registry statistics
// @Tags Event
// @Produce json
// @Success 200 {object} pkgapp.Res{data=service.RegistryStatsDTO} "Success"
// @Router /api/stats [get]
func (h *RegistryHandler) Stats(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	ctx := c.Request.Context()

	stats, err := h.App.RegistryService.Stats(ctx)
	if err != nil {
		h.logError(ctx, "RegistryHandler.Stats", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	response.ToResponse(code.Success.WithData(stats))
}
