package middleware

import (
	"strings"

	"github.com/haierkeys/note-registry-service/pkg/code"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
)

// LangWithTranslator 创建带翻译器的语言中间件（支持依赖注入）
// 语言只写入当前请求的上下文, 不修改全局默认语言
func LangWithTranslator(uni *ut.UniversalTranslator) gin.HandlerFunc {

	return func(c *gin.Context) {

		var lang string

		if s, exist := c.GetQuery("lang"); exist {
			lang = s
		} else if s = c.GetHeader("lang"); len(s) != 0 {
			lang = s
		} else if s = c.GetHeader("Accept-Language"); len(s) != 0 {
			// zh-CN,zh;q=0.9 只取第一项
			lang = strings.SplitN(strings.SplitN(s, ",", 2)[0], ";", 2)[0]
		}

		lang = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(lang), "-", "_"))
		if lang == "zh" {
			lang = "zh_cn"
		}

		supported := false
		for _, l := range code.GetSupportedLanguages() {
			if l == lang {
				supported = true
				break
			}
		}
		if supported {
			c.Set("lang", lang)
		}

		if uni != nil {
			// zh_cn 使用 zh 的翻译
			trans, found := uni.GetTranslator(lang)
			if !found {
				trans, found = uni.GetTranslator(strings.SplitN(lang, "_", 2)[0])
			}
			if !found {
				trans, _ = uni.GetTranslator("en")
			}
			c.Set("trans", trans)
		}

		c.Next()
	}
}
