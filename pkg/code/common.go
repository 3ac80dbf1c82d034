package code

import "net/http"

var (
	Success = NewSuss(1, lang{en: "Success", zh_cn: "成功"})

	SuccessCreate   = NewSuss(2, lang{en: "Note created", zh_cn: "笔记创建成功"})
	SuccessTransfer = NewSuss(3, lang{en: "Note transferred", zh_cn: "笔记转移成功"})
	SuccessNoUpdate = NewSuss(4, lang{en: "Nothing changed", zh_cn: "没有变化"})
)

var (
	ErrorServerInternal  = NewError(500, lang{en: "Internal server error", zh_cn: "服务器内部错误"}, http.StatusInternalServerError)
	ErrorNotFound        = NewError(404, lang{en: "Resource not found", zh_cn: "资源不存在"}, http.StatusNotFound)
	ErrorInvalidParams   = NewError(400, lang{en: "Invalid params", zh_cn: "参数错误"}, http.StatusBadRequest)
	ErrorTooManyRequests = NewError(429, lang{en: "Too many requests", zh_cn: "请求过多"}, http.StatusTooManyRequests)
	ErrorRequestTimeout  = NewError(408, lang{en: "Request timeout", zh_cn: "请求超时"}, http.StatusRequestTimeout)

	ErrorTokenGenerate = NewError(403, lang{en: "Failed to generate token", zh_cn: "生成令牌失败"}, http.StatusInternalServerError)

	ErrorDBQuery = NewError(505, lang{en: "Database query failed", zh_cn: "数据库查询失败"}, http.StatusInternalServerError)

	ErrorInvalidStorageType = NewError(506, lang{en: "Invalid storage type", zh_cn: "无效的存储类型"}, http.StatusInternalServerError)
	ErrorSnapshotUpload     = NewError(507, lang{en: "Snapshot upload failed", zh_cn: "快照上传失败"}, http.StatusInternalServerError)
)

// Registry errors
// 注册表错误
var (
	ErrorUnauthorized     = NewError(1001, lang{en: "Caller is not authorized", zh_cn: "调用者未授权"}, http.StatusUnauthorized)
	ErrorIDSpaceExhausted = NewError(1002, lang{en: "Note id space exhausted", zh_cn: "笔记编号已耗尽"}, http.StatusConflict)
	ErrorInvalidNoteID    = NewError(1003, lang{en: "Invalid note id", zh_cn: "无效的笔记编号"}, http.StatusNotFound)
	ErrorNoteNotFound     = NewError(1004, lang{en: "Note not found", zh_cn: "笔记不存在"}, http.StatusNotFound)
)
