package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/himitsu/internal/account"
	"github.com/yourusername/himitsu/internal/auth"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := cookie.NewStore([]byte("test-session-key-0123456789abcdef"))
	store.Options(sessions.Options{Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})

	router := gin.New()
	router.Use(sessions.Sessions("test_session", store))
	require.NoError(t, Install(router))

	router.GET("/flash", func(c *gin.Context) {
		session := sessions.Default(c)
		session.AddFlash("ユーザー名またはパスワードが正しくありません")
		require.NoError(t, session.Save())
		c.Status(http.StatusNoContent)
	})
	router.GET("/as-alice", func(c *gin.Context) {
		c.Set(auth.ContextAccountKey, account.NewLocal("alice", "digest"))
		Render(c, http.StatusOK, "home.html", nil)
	})
	router.GET("/broken", func(c *gin.Context) {
		RenderError(c, http.StatusServiceUnavailable, "シークレットを読み込めませんでした。")
	})
	pages := Pages{}
	router.GET("/", pages.Home)
	router.GET("/login", pages.Login)
	router.GET("/register", pages.Register)
	router.GET("/google/login", Pages{GoogleEnabled: true}.Login)
	return router
}

func get(router http.Handler, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func lastCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[len(cookies)-1]
}

func TestRenderShowsFlashOnce(t *testing.T) {
	router := newTestRouter(t)
	withFlash := lastCookie(t, get(router, "/flash"))

	rec := get(router, "/login", withFlash)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<p class="flash">ユーザー名またはパスワードが正しくありません</p>`)

	consumed := lastCookie(t, rec)
	rec = get(router, "/login", consumed)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `class="flash"`)
}

func TestRenderWithoutFlashesLeavesSessionAlone(t *testing.T) {
	rec := get(newTestRouter(t), "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestRenderNavigationFollowsLoginState(t *testing.T) {
	router := newTestRouter(t)

	anon := get(router, "/").Body.String()
	assert.Contains(t, anon, `href="/login"`)
	assert.NotContains(t, anon, `href="/logout"`)

	alice := get(router, "/as-alice").Body.String()
	assert.Contains(t, alice, `href="/logout"`)
	assert.Contains(t, alice, `href="/submit"`)
}

func TestRenderError(t *testing.T) {
	rec := get(newTestRouter(t), "/broken")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "シークレットを読み込めませんでした。")
}

func TestPagesGoogleLink(t *testing.T) {
	router := newTestRouter(t)

	assert.NotContains(t, get(router, "/login").Body.String(), `href="/auth/google"`)
	assert.NotContains(t, get(router, "/register").Body.String(), `href="/auth/google"`)
	assert.Contains(t, get(router, "/google/login").Body.String(), `href="/auth/google"`)
}

func TestInstallServesStatic(t *testing.T) {
	rec := get(newTestRouter(t), "/static/styles.css")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/css")
}
