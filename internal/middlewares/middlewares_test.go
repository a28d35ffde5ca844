package middlewares

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ephraimVPA/Helfzen-zn/internal/metrics"
	"github.com/ephraimVPA/Helfzen-zn/internal/responses"
	"github.com/ephraimVPA/Helfzen-zn/internal/utils"
)

var testSecret = []byte("middleware-test-secret")

type tokenAuth struct{}

func (tokenAuth) Authenticate(_ context.Context, token string) (*utils.Claims, error) {
	if token == "" {
		return nil, errors.New("missing token")
	}
	return utils.VerifySessionToken(token, testSecret)
}

func init() {
	gin.SetMode(gin.TestMode)
}

func issue(t *testing.T, role string, commentAccess bool) string {
	t.Helper()
	token, err := utils.GenerateSessionToken(&utils.Claims{
		UserID:        "u-1",
		Email:         "jane@example.com",
		Role:          role,
		CommentAccess: commentAccess,
	}, testSecret, time.Hour)
	require.NoError(t, err)
	return token
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	all := append(handlers, func(c *gin.Context) {
		claims, _ := ClaimsFrom(c)
		email := ""
		if claims != nil {
			email = claims.Email
		}
		c.String(http.StatusOK, "ok:"+email)
	})
	r.GET("/*path", all...)
	return r
}

func do(r http.Handler, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: AuthCookieName, Value: token})
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	r := newRouter(Authenticate(tokenAuth{}))

	w := do(r, "/api/comments", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var body responses.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, responses.CodeUnauthorized, body.Code)

	w = do(r, "/api/comments", "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, "/api/comments", issue(t, "user", false))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok:jane@example.com", w.Body.String())
}

func TestAuthenticate_BearerHeader(t *testing.T) {
	r := newRouter(Authenticate(tokenAuth{}))

	req := httptest.NewRequest(http.MethodGet, "/api/comments", nil)
	req.Header.Set("Authorization", "Bearer "+issue(t, "user", false))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireSession_RedirectsWithCallback(t *testing.T) {
	r := newRouter(RequireSession(tokenAuth{}))

	w := do(r, "/reports?commentMode=true", "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login?callbackUrl=%2Freports%3FcommentMode%3Dtrue", w.Header().Get("Location"))

	w = do(r, "/reports", issue(t, "user", false))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireCommentAccess(t *testing.T) {
	r := newRouter(RequireSession(tokenAuth{}), RequireCommentAccess())

	w := do(r, "/dashboard?commentMode=true", issue(t, "user", false))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, NoCommentAccessRedirect, w.Header().Get("Location"))

	w = do(r, "/dashboard", issue(t, "user", false))
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, "/dashboard?commentMode=true", issue(t, "user", true))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAdmin(t *testing.T) {
	r := newRouter(Authenticate(tokenAuth{}), RequireAdmin())

	assert.Equal(t, http.StatusForbidden, do(r, "/admin", issue(t, "user", true)).Code)
	assert.Equal(t, http.StatusOK, do(r, "/admin", issue(t, "admin", false)).Code)

	bare := newRouter(RequireAdmin())
	assert.Equal(t, http.StatusUnauthorized, do(bare, "/admin", "").Code)
}

func TestOptionalSession(t *testing.T) {
	r := newRouter(OptionalSession(tokenAuth{}))

	assert.Equal(t, "ok:", do(r, "/login", "").Body.String())
	assert.Equal(t, "ok:jane@example.com", do(r, "/login", issue(t, "user", false)).Body.String())
}

func TestRateLimiter(t *testing.T) {
	log, hook := test.NewNullLogger()
	rl := NewRateLimiter(2, log)
	r := newRouter(rl.Handler())

	assert.Equal(t, http.StatusOK, do(r, "/api/auth/login", "").Code)
	assert.Equal(t, http.StatusOK, do(r, "/api/auth/login", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, "/api/auth/login", "").Code)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)

	unlimited := newRouter(NewRateLimiter(0, log).Handler())
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, do(unlimited, "/x", "").Code)
	}
}

func TestRequestLoggerAndMetrics(t *testing.T) {
	log, hook := test.NewNullLogger()
	reg := prometheus.NewRegistry()
	r := gin.New()
	r.Use(RequestLogger(log), Metrics(metrics.New(reg)))
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	do(r, "/healthz", "")
	do(r, "/missing", "")

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, http.StatusNoContent, entries[0].Data["status"])
	assert.Equal(t, logrus.WarnLevel, entries[1].Level)

	count, err := testutil.GatherAndCount(reg, "backoffice_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
