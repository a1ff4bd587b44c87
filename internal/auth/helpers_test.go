package auth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/himitsu/internal/account"
	"github.com/yourusername/himitsu/internal/storage"
)

var errStoreDown = errors.New("connection refused")

// flakyStore は Memory をラップし、指定したメソッドだけ失敗させます。
type flakyStore struct {
	*storage.Memory
	failFind   bool
	failCreate bool
	failByID   atomic.Bool
}

func (s *flakyStore) FindLocalByUsername(ctx context.Context, username string) (*account.Account, error) {
	if s.failFind {
		return nil, errStoreDown
	}
	return s.Memory.FindLocalByUsername(ctx, username)
}

func (s *flakyStore) FindByOAuthSubject(ctx context.Context, provider, subject string) (*account.Account, error) {
	if s.failFind {
		return nil, errStoreDown
	}
	return s.Memory.FindByOAuthSubject(ctx, provider, subject)
}

func (s *flakyStore) FindByID(ctx context.Context, id string) (*account.Account, error) {
	if s.failByID.Load() {
		return nil, errStoreDown
	}
	return s.Memory.FindByID(ctx, id)
}

func (s *flakyStore) Create(ctx context.Context, a *account.Account) error {
	if s.failCreate {
		return errStoreDown
	}
	return s.Memory.Create(ctx, a)
}

// stubProvider は Google の代わりに固定のプロフィールを返します。
type stubProvider struct {
	profile Profile
	err     error

	mu    sync.Mutex
	codes []string
}

func (p *stubProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.test/o/oauth2/auth?state=" + url.QueryEscape(state)
}

func (p *stubProvider) Exchange(_ context.Context, code string) (Profile, error) {
	p.mu.Lock()
	p.codes = append(p.codes, code)
	p.mu.Unlock()
	if p.err != nil {
		return Profile{}, p.err
	}
	return p.profile, nil
}

func (p *stubProvider) exchanged() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.codes...)
}

func testHasher() *BcryptHasher {
	return NewBcryptHasher(bcrypt.MinCost)
}

// newTestServer は認証ルートだけを持つサーバーを起動します。
// /whoami はログイン中のユーザー名、/submit はログイン必須のページです。
func newTestServer(t *testing.T, m *Manager) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	store := cookie.NewStore([]byte("test-session-key-0123456789abcdef"))
	store.Options(sessions.Options{Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
	router.Use(sessions.Sessions(SessionCookieName, store))
	router.Use(m.Identify())
	router.POST("/register", m.Register)
	router.POST("/login", m.Login)
	router.GET("/logout", m.Logout)
	router.GET("/auth/google", m.GoogleStart)
	router.GET("/auth/google/secrets", m.GoogleCallback)
	router.GET("/whoami", func(c *gin.Context) {
		a, ok := CurrentAccount(c)
		if !ok {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, a.Username)
	})
	router.GET("/flashes", func(c *gin.Context) {
		session := sessions.Default(c)
		var out []string
		for _, f := range session.Flashes() {
			out = append(out, f.(string))
		}
		_ = session.Save()
		c.String(http.StatusOK, strings.Join(out, "\n"))
	})
	protected := router.Group("/", m.RequireLogin())
	protected.GET("/submit", func(c *gin.Context) {
		c.String(http.StatusOK, "form")
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

// browser はクッキーを保持し、リダイレクトを追わないクライアントです。
type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func newBrowser(t *testing.T, srv *httptest.Server) *browser {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &browser{
		t:    t,
		base: srv.URL,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (b *browser) get(path string) *http.Response {
	b.t.Helper()
	resp, err := b.client.Get(b.base + path)
	require.NoError(b.t, err)
	b.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (b *browser) post(path string, form url.Values) *http.Response {
	b.t.Helper()
	resp, err := b.client.PostForm(b.base+path, form)
	require.NoError(b.t, err)
	b.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (b *browser) body(path string) string {
	b.t.Helper()
	resp := b.get(path)
	data, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return string(data)
}

func credentials(username, password string) url.Values {
	return url.Values{"username": {username}, "password": {password}}
}
