package dto

import "github.com/haierkeys/note-registry-service/internal/service"

// NoteCreateRequest Request parameters for creating a note
// NoteCreateRequest 创建笔记的请求参数
// payloadBase64 takes precedence when both are given, an empty payload is a valid note
// 同时提供时以 payloadBase64 为准, 空内容也是合法的笔记
type NoteCreateRequest struct {
	Payload       string `json:"payload" form:"payload"`
	PayloadBase64 []byte `json:"payloadBase64" form:"-"`
}

// Bytes returns the note payload carried by the request
// Bytes 返回请求携带的笔记内容
func (r *NoteCreateRequest) Bytes() []byte {
	if len(r.PayloadBase64) > 0 {
		return r.PayloadBase64
	}
	return []byte(r.Payload)
}

// NoteCreateResponse Response of a created note
// NoteCreateResponse 创建笔记的响应
type NoteCreateResponse struct {
	ID uint32 `json:"id"`
}

// NoteTransferRequest Request parameters for transferring a note
// NoteTransferRequest 转移笔记的请求参数
type NoteTransferRequest struct {
	To string  `json:"to" form:"to" binding:"required,identity"`
	ID *uint32 `json:"id" form:"id" binding:"required"`
}

// NoteGetRequest Request parameters for reading one note
// NoteGetRequest 获取单条笔记的请求参数, owner 为空时使用当前调用者
type NoteGetRequest struct {
	Owner string  `json:"owner" form:"owner" binding:"omitempty,identity"`
	ID    *uint32 `json:"id" form:"id" binding:"required"`
}

// NoteOwnerRequest Request parameters for looking up the owner of a note id
// NoteOwnerRequest 查询笔记持有者的请求参数
type NoteOwnerRequest struct {
	ID *uint32 `json:"id" form:"id" binding:"required"`
}

// NoteOwnerResponse Owner of a note id
// NoteOwnerResponse 笔记持有者
type NoteOwnerResponse struct {
	ID    uint32 `json:"id"`
	Owner string `json:"owner"`
}

// NextIDResponse The id the next create will receive
// NextIDResponse 下一个将要分配的编号
type NextIDResponse struct {
	NextID uint32 `json:"nextId"`
	// Exhausted 编号空间已耗尽, 之后的创建都会失败
	Exhausted bool `json:"exhausted"`
}

// EventListRequest Request parameters for reading the event log
// EventListRequest 查询事件日志的请求参数
type EventListRequest struct {
	AfterSeq int64 `json:"afterSeq" form:"afterSeq" binding:"min=0"`
	Limit    int   `json:"limit" form:"limit" binding:"min=0"`
}

// EventListResponse One page of the event log
// EventListResponse 一页事件日志
type EventListResponse struct {
	List []*service.EventDTO `json:"list"`
	// NextSeq 下一页请求使用的 afterSeq
	NextSeq int64 `json:"nextSeq"`
}
