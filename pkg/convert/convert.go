package convert

import (
	"strconv"
	"strings"
)

// StrTo converts request and config strings
// StrTo 转换请求参数和配置中的字符串
type StrTo string

func (s StrTo) String() string {
	return string(s)
}

func (s StrTo) Int() (int, error) {
	return strconv.Atoi(strings.TrimSpace(s.String()))
}

func (s StrTo) MustInt() int {
	v, _ := s.Int()
	return v
}
