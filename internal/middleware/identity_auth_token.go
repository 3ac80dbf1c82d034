package middleware

import (
	"strings"

	"github.com/haierkeys/note-registry-service/pkg/app"
	"github.com/haierkeys/note-registry-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// tokenFromRequest 按优先级获取 Token: Authorization 头 -> token 头 -> 查询参数
// 浏览器的 WebSocket 无法设置请求头, 只能通过查询参数传递
func tokenFromRequest(c *gin.Context) string {
	if s := c.GetHeader("Authorization"); s != "" {
		if len(s) > 7 && strings.EqualFold(s[:7], "Bearer ") {
			return strings.TrimSpace(s[7:])
		}
		return strings.TrimSpace(s)
	}
	if s := c.GetHeader("Token"); s != "" {
		return s
	}
	if s, ok := c.GetQuery("token"); ok {
		return s
	}
	if s, ok := c.GetQuery("authorization"); ok {
		return s
	}
	return ""
}

// IdentityAuthToken resolves the bearer token into the caller identity.
// Requests without a valid token are rejected with ErrorUnauthorized.
// IdentityAuthToken 解析 Token 得到调用者身份, 无效时返回 ErrorUnauthorized
func IdentityAuthToken(tm app.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := app.NewResponse(c)

		token := tokenFromRequest(c)
		if token == "" {
			response.ToResponse(code.ErrorUnauthorized.WithDetails("token is missing"))
			c.Abort()
			return
		}

		claims, err := tm.Parse(token)
		if err != nil {
			response.ToResponse(code.ErrorUnauthorized.WithDetails("token is invalid"))
			c.Abort()
			return
		}

		app.SetIdentity(c, claims)
		c.Next()
	}
}

// OptionalIdentityAuthToken sets the identity when a valid token is present and never rejects.
// OptionalIdentityAuthToken 存在有效 Token 时写入身份, 不拒绝请求
func OptionalIdentityAuthToken(tm app.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := tokenFromRequest(c); token != "" {
			if claims, err := tm.Parse(token); err == nil {
				app.SetIdentity(c, claims)
			}
		}
		c.Next()
	}
}
