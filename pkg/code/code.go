package code

import (
	"fmt"
	"net/http"
)

// Code is a numbered result carried back to the client.
// Code 是返回给客户端的带编号的结果
type Code struct {
	// 状态码
	code int
	// 是否成功
	status bool
	// 多语言消息
	Lang lang
	// http 状态码, 0 表示 200
	httpStatus int
	// 数据
	data     interface{}
	haveData bool
	// 错误详细信息
	details     []string
	haveDetails bool
	// 所属身份
	owner     string
	haveOwner bool
}

var codes = map[int]string{}
var sussCodes = map[int]string{}

// NewError registers an error code. Registering the same number twice panics.
// NewError 注册一个错误码, 重复注册会 panic
func NewError(code int, l lang, httpStatus ...int) *Code {
	if _, ok := codes[code]; ok {
		panic(fmt.Sprintf("错误码 %d 已经存在，请更换一个", code))
	}
	codes[code] = l.GetMessage()

	c := &Code{code: code, status: false, Lang: l}
	if len(httpStatus) > 0 {
		c.httpStatus = httpStatus[0]
	}
	return c
}

// NewSuss registers a success code.
// NewSuss 注册一个成功码
func NewSuss(code int, l lang) *Code {
	if _, ok := sussCodes[code]; ok {
		panic(fmt.Sprintf("成功码 %d 已经存在，请更换一个", code))
	}
	sussCodes[code] = l.GetMessage()
	return &Code{code: code, status: true, Lang: l}
}

// Clone returns a copy without data, details or owner, so registered codes are never mutated.
// Clone 返回不含附加信息的副本, 避免修改全局注册的 Code
func (e *Code) Clone() *Code {
	return &Code{
		code:       e.code,
		status:     e.status,
		Lang:       e.Lang,
		httpStatus: e.httpStatus,
		details:    []string{},
	}
}

func (e *Code) Error() string {
	return e.Msg()
}

func (e *Code) Code() int {
	return e.code
}

func (e *Code) Status() bool {
	return e.status
}

func (e *Code) Msg() string {
	return e.Lang.GetMessage()
}

func (e *Code) Details() []string {
	return e.details
}

func (e *Code) Data() interface{} {
	return e.data
}

func (e *Code) Owner() string {
	return e.owner
}

func (e *Code) HaveDetails() bool {
	return e.haveDetails
}

func (e *Code) HaveData() bool {
	return e.haveData
}

func (e *Code) HaveOwner() bool {
	return e.haveOwner
}

// Is reports whether target is the same registered code, so errors.Is works on clones.
// Is 判断是否为同一个错误码, 使副本也可以用 errors.Is 比较
func (e *Code) Is(target error) bool {
	t, ok := target.(*Code)
	if !ok {
		return false
	}
	return t.code == e.code && t.status == e.status
}

func (e *Code) WithData(data interface{}) *Code {
	c := e.Clone()
	c.details, c.haveDetails = e.details, e.haveDetails
	c.owner, c.haveOwner = e.owner, e.haveOwner
	c.haveData = true
	c.data = data
	return c
}

func (e *Code) WithOwner(owner string) *Code {
	c := e.Clone()
	c.data, c.haveData = e.data, e.haveData
	c.details, c.haveDetails = e.details, e.haveDetails
	c.haveOwner = true
	c.owner = owner
	return c
}

func (e *Code) WithDetails(details ...string) *Code {
	c := e.Clone()
	c.data, c.haveData = e.data, e.haveData
	c.owner, c.haveOwner = e.owner, e.haveOwner
	c.haveDetails = true
	c.details = append(c.details, details...)
	return c
}

// StatusCode is the http status the response is written with.
// StatusCode 返回响应使用的 http 状态码
func (e *Code) StatusCode() int {
	if e.httpStatus == 0 {
		return http.StatusOK
	}
	return e.httpStatus
}
