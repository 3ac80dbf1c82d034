// Package validator gin 参数校验器
package validator

import (
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// MaxIdentityLength 与 registry_note.owner 列宽一致
const MaxIdentityLength = 191

// CustomValidator implements binding.StructValidator on validator/v10
// CustomValidator 基于 validator/v10 实现 gin 的 StructValidator
type CustomValidator struct {
	Once     sync.Once
	Validate *validator.Validate
}

func NewCustomValidator() *CustomValidator {
	return &CustomValidator{}
}

var _ binding.StructValidator = (*CustomValidator)(nil)

func (v *CustomValidator) ValidateStruct(obj interface{}) error {
	if kindOfData(obj) != reflect.Struct {
		return nil
	}
	v.lazyinit()
	return v.Validate.Struct(obj)
}

func (v *CustomValidator) Engine() interface{} {
	v.lazyinit()
	return v.Validate
}

func (v *CustomValidator) lazyinit() {
	v.Once.Do(func() {
		v.Validate = validator.New()
		v.Validate.SetTagName("binding")
		_ = v.Validate.RegisterValidation("identity", ValidIdentity)
	})
}

func kindOfData(data interface{}) reflect.Kind {
	value := reflect.ValueOf(data)
	valueType := value.Kind()
	if valueType == reflect.Ptr {
		valueType = value.Elem().Kind()
	}
	return valueType
}

// ValidIdentity accepts a non-empty identity without whitespace or control characters
// ValidIdentity 身份不能为空且不含空白和控制字符
func ValidIdentity(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" || len(s) > MaxIdentityLength {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	}) < 0
}
