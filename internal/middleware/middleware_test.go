package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/haierkeys/note-registry-service/pkg/app"
	"github.com/haierkeys/note-registry-service/pkg/limiter"
	"github.com/haierkeys/note-registry-service/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Code    int    `json:"code"`
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Details string `json:"details"`
	TraceID string `json:"traceId"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var e envelope
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &e))
	return e
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdentityAuthToken(t *testing.T) {
	tm := app.NewTokenManager(app.TokenConfig{SecretKey: "secret"})
	token, err := tm.Generate("alice", "")
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", IdentityAuthToken(tm), func(c *gin.Context) {
		c.String(http.StatusOK, app.GetIdentity(c))
	})

	cases := []struct {
		name   string
		mutate func(req *http.Request)
		status int
		body   string
	}{
		{"bearer", func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+token) }, http.StatusOK, "alice"},
		{"raw header", func(req *http.Request) { req.Header.Set("Token", token) }, http.StatusOK, "alice"},
		{"query", func(req *http.Request) { req.URL.RawQuery = "token=" + token }, http.StatusOK, "alice"},
		{"missing", func(req *http.Request) {}, http.StatusUnauthorized, ""},
		{"garbage", func(req *http.Request) { req.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tc.mutate(req)
			w := serve(r, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, tc.body, w.Body.String())
			} else {
				assert.Equal(t, 1001, decode(t, w).Code)
			}
		})
	}
}

func TestIdentityAuthToken_OtherSecret(t *testing.T) {
	other := app.NewTokenManager(app.TokenConfig{SecretKey: "other"})
	token, err := other.Generate("mallory", "")
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", IdentityAuthToken(app.NewTokenManager(app.TokenConfig{SecretKey: "secret"})), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)
}

func TestOptionalIdentityAuthToken(t *testing.T) {
	tm := app.NewTokenManager(app.TokenConfig{SecretKey: "secret"})
	r := gin.New()
	r.GET("/who", OptionalIdentityAuthToken(tm), func(c *gin.Context) {
		c.String(http.StatusOK, app.GetIdentity(c))
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/who", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestTraceMiddleware(t *testing.T) {
	var fromCtx string
	r := gin.New()
	r.Use(TraceMiddlewareWithConfig(true, ""))
	r.GET("/t", func(c *gin.Context) {
		fromCtx = logger.TraceIDFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/t", nil))
	generated := w.Header().Get(DefaultTraceIDHeader)
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, fromCtx)

	req := httptest.NewRequest(http.MethodGet, "/t", nil)
	req.Header.Set(DefaultTraceIDHeader, "given-id")
	w = serve(r, req)
	assert.Equal(t, "given-id", w.Header().Get(DefaultTraceIDHeader))
	assert.Equal(t, "given-id", fromCtx)
}

func TestTraceMiddleware_Disabled(t *testing.T) {
	r := gin.New()
	r.Use(TraceMiddlewareWithConfig(false, "X-Req"))
	r.GET("/t", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/t", nil))
	assert.Empty(t, w.Header().Get("X-Req"))
}

func TestRateLimiter(t *testing.T) {
	l := limiter.NewMethodLimiter().AddBuckets(limiter.BucketRule{
		Key:          "/api/note",
		FillInterval: time.Hour,
		Capacity:     1,
		Quantum:      1,
	})
	r := gin.New()
	r.Use(RateLimiter(l))
	r.POST("/api/note", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/version", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodPost, "/api/note", nil)).Code)

	w := serve(r, httptest.NewRequest(http.MethodPost, "/api/note", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// unrelated routes have no bucket
	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/api/version", nil)).Code)
}

func TestLangWithTranslator(t *testing.T) {
	r := gin.New()
	r.Use(LangWithTranslator(nil))
	r.GET("/l", func(c *gin.Context) { c.String(http.StatusOK, app.GetLang(c)) })

	req := httptest.NewRequest(http.MethodGet, "/l", nil)
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9")
	assert.Equal(t, "zh_cn", serve(r, req).Body.String())

	req = httptest.NewRequest(http.MethodGet, "/l?lang=en", nil)
	assert.Equal(t, "en", serve(r, req).Body.String())
}

func TestRecoveryWithLogger(t *testing.T) {
	r := gin.New()
	r.Use(TraceMiddlewareWithConfig(true, ""), RecoveryWithLogger(zap.NewNop()))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	e := decode(t, w)
	assert.Equal(t, 500, e.Code)
	assert.False(t, e.Status)
	assert.Equal(t, w.Header().Get(DefaultTraceIDHeader), e.TraceID)
}

func TestNoFound(t *testing.T) {
	r := gin.New()
	r.NoRoute(NoFound())

	w := serve(r, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 404, decode(t, w).Code)
}

func TestCors_Preflight(t *testing.T) {
	r := gin.New()
	r.Use(Cors())
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://example.com")
	w := serve(r, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestContextTimeout(t *testing.T) {
	r := gin.New()
	r.Use(ContextTimeout(time.Second))
	r.GET("/d", func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		if ok {
			c.Status(http.StatusOK)
			return
		}
		c.Status(http.StatusTeapot)
	})
	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/d", nil)).Code)
}
