package convert

import (
	"github.com/bytedance/sonic"
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
)

// StructAssign copies fields with the same name from src into dst.
// Named numeric types are converted, so domain ids land in plain integer fields.
// StructAssign 把 src 中同名字段复制到 dst, 可互相转换的类型会自动转换
func StructAssign(src any, dst any) error {
	if err := copier.Copy(dst, src); err != nil {
		return errors.Wrap(err, "copy struct")
	}
	return nil
}

// StructToMap 结构体通过 JSON 转为 map
func StructToMap(param any) (map[string]any, error) {
	data := map[string]any{}
	raw, err := sonic.Marshal(param)
	if err != nil {
		return nil, errors.Wrap(err, "marshal struct")
	}
	if err := sonic.Unmarshal(raw, &data); err != nil {
		return nil, errors.Wrap(err, "unmarshal struct")
	}
	return data, nil
}
