package routers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/haierkeys/note-registry-service/internal/app"
	"github.com/haierkeys/note-registry-service/internal/dto"
	"github.com/haierkeys/note-registry-service/internal/service"
	pkgapp "github.com/haierkeys/note-registry-service/pkg/app"
	"github.com/haierkeys/note-registry-service/pkg/code"
	"github.com/haierkeys/note-registry-service/pkg/validator"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
	binding.Validator = validator.NewCustomValidator()
}

type res[T any] struct {
	Code    int    `json:"code"`
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type testServer struct {
	t      *testing.T
	app    *app.App
	engine *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg, err := app.ParseConfig([]byte("database:\n  type: memory\nsecurity:\n  auth-token-key: router-test\n"))
	require.NoError(t, err)

	a, err := app.NewApp(cfg, zap.NewNop(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(nil) })

	return &testServer{t: t, app: a, engine: NewRouter(a, nil)}
}

func (s *testServer) token(identity string) string {
	tok, err := s.app.TokenManager.Generate(identity, "")
	require.NoError(s.t, err)
	return tok
}

func (s *testServer) do(method, target, identity string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := sonic.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if identity != "" {
		req.Header.Set("Authorization", "Bearer "+s.token(identity))
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) res[T] {
	t.Helper()
	var out res[T]
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func uptr(v uint32) *uint32 { return &v }

func TestRouter_CreateAllocatesSequentialIDs(t *testing.T) {
	s := newTestServer(t)

	for want := uint32(0); want < 3; want++ {
		w := s.do(http.MethodPost, "/api/note", "alice", dto.NoteCreateRequest{Payload: "cid"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		out := decode[dto.NoteCreateResponse](t, w)
		assert.Equal(t, code.SuccessCreate.Code(), out.Code)
		assert.Equal(t, want, out.Data.ID)
	}

	w := s.do(http.MethodGet, "/api/note/next_id", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	next := decode[dto.NextIDResponse](t, w)
	assert.Equal(t, uint32(3), next.Data.NextID)
	assert.False(t, next.Data.Exhausted)
}

func TestRouter_CreateRequiresToken(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/note", "", dto.NoteCreateRequest{Payload: "cid"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, code.ErrorUnauthorized.Code(), decode[any](t, w).Code)

	// nothing was allocated
	w = s.do(http.MethodGet, "/api/note/next_id", "", nil)
	assert.Equal(t, uint32(0), decode[dto.NextIDResponse](t, w).Data.NextID)
}

func TestRouter_CreateRejectsLargePayload(t *testing.T) {
	s := newTestServer(t)

	big := make([]byte, s.app.Config().Registry.MaxPayloadSize+1)
	w := s.do(http.MethodPost, "/api/note", "alice", dto.NoteCreateRequest{PayloadBase64: big})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, code.ErrorInvalidParams.Code(), decode[any](t, w).Code)
}

func TestRouter_TransferFlow(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/note", "alice", dto.NoteCreateRequest{Payload: "cid-1"})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodPost, "/api/note/transfer", "alice", dto.NoteTransferRequest{To: "bob", ID: uptr(0)})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	moved := decode[[]service.EventDTO](t, w)
	assert.Equal(t, code.SuccessTransfer.Code(), moved.Code)
	require.Len(t, moved.Data, 1)
	assert.Equal(t, "alice", moved.Data[0].Owner)
	assert.Equal(t, "bob", moved.Data[0].To)
	assert.Equal(t, uint32(0), moved.Data[0].NoteID)

	// alice no longer holds it
	w = s.do(http.MethodPost, "/api/note/transfer", "alice", dto.NoteTransferRequest{To: "carol", ID: uptr(0)})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, code.ErrorInvalidNoteID.Code(), decode[any](t, w).Code)

	// self transfer of a held note changes nothing
	w = s.do(http.MethodPost, "/api/note/transfer", "bob", dto.NoteTransferRequest{To: "bob", ID: uptr(0)})
	require.Equal(t, http.StatusOK, w.Code)
	same := decode[[]service.EventDTO](t, w)
	assert.Equal(t, code.SuccessNoUpdate.Code(), same.Code)
	assert.Empty(t, same.Data)

	// self transfer of a missing note fails
	w = s.do(http.MethodPost, "/api/note/transfer", "bob", dto.NoteTransferRequest{To: "bob", ID: uptr(5)})
	assert.Equal(t, code.ErrorInvalidNoteID.Code(), decode[any](t, w).Code)

	w = s.do(http.MethodGet, "/api/note?owner=bob&id=0", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	note := decode[service.NoteDTO](t, w)
	assert.Equal(t, "bob", note.Data.Owner)
	assert.Equal(t, "cid-1", note.Data.Payload)

	w = s.do(http.MethodGet, "/api/note/owner?id=0", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "bob", decode[dto.NoteOwnerResponse](t, w).Data.Owner)

	w = s.do(http.MethodGet, "/api/events", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	events := decode[dto.EventListResponse](t, w)
	require.Len(t, events.Data.List, 2)
	assert.Equal(t, int64(2), events.Data.NextSeq)

	w = s.do(http.MethodGet, "/api/events?afterSeq=1", "", nil)
	events = decode[dto.EventListResponse](t, w)
	require.Len(t, events.Data.List, 1)
	assert.Equal(t, "NoteTransferred", events.Data.List[0].Kind)
}

func TestRouter_TransferValidation(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		name string
		body any
	}{
		{"missing id", map[string]any{"to": "bob"}},
		{"missing recipient", map[string]any{"id": 0}},
		{"recipient with space", map[string]any{"to": "bo b", "id": 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/api/note/transfer", "alice", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, code.ErrorInvalidParams.Code(), decode[any](t, w).Code)
		})
	}
}

func TestRouter_GetDefaultsToCaller(t *testing.T) {
	s := newTestServer(t)
	s.do(http.MethodPost, "/api/note", "alice", dto.NoteCreateRequest{Payload: "mine"})

	w := s.do(http.MethodGet, "/api/note?id=0", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "mine", decode[service.NoteDTO](t, w).Data.Payload)

	// anonymous without owner
	w = s.do(http.MethodGet, "/api/note?id=0", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/note?id=0", "bob", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, code.ErrorNoteNotFound.Code(), decode[any](t, w).Code)
}

func TestRouter_ListOwnNotes(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 3; i++ {
		s.do(http.MethodPost, "/api/note", "alice", dto.NoteCreateRequest{Payload: "n"})
	}
	s.do(http.MethodPost, "/api/note", "bob", dto.NoteCreateRequest{Payload: "n"})

	w := s.do(http.MethodGet, "/api/notes?page=1&pageSize=2", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)

	type listRes struct {
		List  []service.NoteDTO `json:"list"`
		Pager pkgapp.Pager      `json:"pager"`
	}
	out := decode[listRes](t, w)
	assert.Len(t, out.Data.List, 2)
	assert.Equal(t, 3, out.Data.Pager.TotalRows)
	assert.Equal(t, 2, out.Data.Pager.PageSize)

	w = s.do(http.MethodGet, "/api/notes", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_StatsAndHealth(t *testing.T) {
	s := newTestServer(t)
	s.do(http.MethodPost, "/api/note", "alice", dto.NoteCreateRequest{Payload: "n"})

	w := s.do(http.MethodGet, "/api/stats", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[service.RegistryStatsDTO](t, w)
	assert.Equal(t, uint32(1), stats.Data.NextID)
	assert.Equal(t, int64(1), stats.Data.Notes)

	w = s.do(http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	health := decode[dto.HealthDTO](t, w)
	assert.Equal(t, "healthy", health.Data.Status)
	assert.Equal(t, "memory", health.Data.Database)

	w = s.do(http.MethodGet, "/api/version", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, app.Version, decode[dto.VersionDTO](t, w).Data.Version)
	assert.Equal(t, app.Version, w.Header().Get("X-App-Version"))
}

func TestRouter_NoRoute(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/api/unknown", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPrivateRouter(t *testing.T) {
	r := NewPrivateRouterWithLogger("release", zap.NewNop())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/vars", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	// pprof only in debug mode
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, DefaultPrefix+"/", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
