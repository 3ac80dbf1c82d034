package code

import (
	"errors"
)

// lang holds the English and Chinese text of a message
// lang 保存消息的英文和中文文本
type lang struct {
	en    string
	zh_cn string
}

const FALLBACK_LNG = "en"

var lng = FALLBACK_LNG

var supportedLanguages = []string{"en", "zh_cn"}

func (l lang) text(language string) string {
	switch language {
	case "zh_cn":
		return l.zh_cn
	case "en":
		return l.en
	}
	return ""
}

// GetMessage returns the message in the global language, falling back to English.
// GetMessage 返回全局语言的消息, 为空时回退到英文
func (l lang) GetMessage() string {
	if msg := l.text(lng); msg != "" {
		return msg
	}
	return l.text(FALLBACK_LNG)
}

// GetMessageIn returns the message in the given language, falling back to English.
// GetMessageIn 返回指定语言的消息
func (l lang) GetMessageIn(language string) string {
	if msg := l.text(language); msg != "" {
		return msg
	}
	return l.text(FALLBACK_LNG)
}

func GetSupportedLanguages() []string {
	return append([]string(nil), supportedLanguages...)
}

// SetGlobalDefaultLang sets the global language. Unknown values reset it to English and return an error.
// SetGlobalDefaultLang 设置全局默认语言, 不支持的语言会回退到英文并返回错误
func SetGlobalDefaultLang(language string) error {
	for _, l := range supportedLanguages {
		if language == l {
			lng = language
			return nil
		}
	}
	lng = FALLBACK_LNG
	return errors.New("unsupported language type, set defaulting to " + FALLBACK_LNG)
}

func GetGlobalDefaultLang() string {
	return lng
}
