package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyvern0us/proxy/internal/auth"
	"github.com/wyvern0us/proxy/internal/infrastructure/logging"
)

func newAuthRouter(t *testing.T) (*gin.Engine, *auth.TokenIssuer) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := auth.NewInMemoryStore(logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	tokens := auth.NewTokenIssuer("test-key", time.Hour)
	h := NewHandlers(nil, nil, store, tokens, logging.NewNop())

	router := gin.New()
	router.POST("/auth/register", h.Register)
	router.POST("/auth/login", h.Login)
	return router, tokens
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)
	return rec
}

func TestRegisterThenLogin(t *testing.T) {
	router, tokens := newAuthRouter(t)

	rec := postJSON(router, "/auth/register", `{"username":"alice","password":"correct horse"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, true, created["success"])
	assert.Equal(t, "alice", created["username"])

	rec = postJSON(router, "/auth/login", `{"username":"alice","password":"correct horse"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var logged map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &logged))
	token, _ := logged["token"].(string)
	require.NotEmpty(t, token)

	claims, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
}

func TestRegisterConflict(t *testing.T) {
	router, _ := newAuthRouter(t)

	rec := postJSON(router, "/auth/register", `{"username":"alice","password":"correct horse"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(router, "/auth/register", `{"username":"alice","password":"other password"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	router, _ := newAuthRouter(t)

	rec := postJSON(router, "/auth/register", `{"username":"alice","password":"short"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginBadCredentials(t *testing.T) {
	router, _ := newAuthRouter(t)

	rec := postJSON(router, "/auth/register", `{"username":"alice","password":"correct horse"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(router, "/auth/login", `{"username":"alice","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postJSON(router, "/auth/login", `{"username":"nobody","password":"whatever"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsMalformedBody(t *testing.T) {
	router, _ := newAuthRouter(t)

	for _, body := range []string{``, `{}`, `{"username":"alice"}`, `not json`} {
		rec := postJSON(router, "/auth/register", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body: %q", body)

		rec = postJSON(router, "/auth/login", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body: %q", body)
	}
}
