// Package auth は認証・認可機能を提供します。
package auth

import (
	"crypto/rand"
	"encoding/gob"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/himitsu/internal/account"
	"github.com/yourusername/himitsu/internal/logutil"
	"github.com/yourusername/himitsu/internal/sessionstore"
)

const (
	SessionCookieName    = "hm_session"
	sessionKeyAccount    = "auth_account"
	sessionKeyIssuedAt   = "issued_at"
	sessionKeyOAuthState = "oauth_state"
)

func init() {
	// フラッシュメッセージは []interface{} としてセッション値に入る
	gob.Register([]interface{}{})
}

// ContextAccountKey は、ハンドラー間でログイン中のアカウントを共有するためのキーです。
const ContextAccountKey = "auth.account"

// Manager は認証処理とセッションの確立・破棄をまとめた構造体です。
type Manager struct {
	store         account.Store
	hasher        Hasher
	identities    *IdentityManager
	authenticator *Authenticator
	provider      IdentityProvider
	lifetime      time.Duration
	now           func() time.Time
}

// Option は Manager の任意設定です。
type Option func(*Manager)

// WithSessionLifetime はログインしてからセッションが有効な期間を設定します。
// 0 以下なら無期限（クッキーの有効期限のみ）です。
func WithSessionLifetime(d time.Duration) Option {
	return func(m *Manager) {
		m.lifetime = d
	}
}

// NewManager は認証マネージャーを作成します。
// provider が nil の場合 Google ログインは無効になります。
func NewManager(store account.Store, hasher Hasher, provider IdentityProvider, opts ...Option) *Manager {
	m := &Manager{
		store:      store,
		hasher:     hasher,
		identities: NewIdentityManager(store),
		authenticator: NewAuthenticator(
			NewLocalVerifier(store, hasher),
			NewOAuthReconciler(store),
		),
		provider: provider,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GoogleEnabled は Google ログインが設定済みかどうかを返します。
func (m *Manager) GoogleEnabled() bool {
	return m.provider != nil
}

// establish は認証済みアカウントでセッションを開始します。
func (m *Manager) establish(c *gin.Context, a *account.Account) error {
	token, err := m.identities.Serialize(a)
	if err != nil {
		return err
	}
	session := sessions.Default(c)
	session.Clear()
	sessionstore.Regenerate(session)
	session.Set(sessionKeyAccount, token)
	session.Set(sessionKeyIssuedAt, m.now().Unix())
	if err := session.Save(); err != nil {
		return err
	}
	c.Set(ContextAccountKey, a)
	log := logutil.GetOrDefault(c.Request.Context())
	log.Info().
		Str("account", a.ID).
		Str("kind", string(a.Credential.Kind())).
		Msg("session established")
	return nil
}

// ForgetIdentity はセッションからアカウントを外し、匿名状態に戻します。
func ForgetIdentity(c *gin.Context) {
	session := sessions.Default(c)
	session.Delete(sessionKeyAccount)
	session.Delete(sessionKeyIssuedAt)
	if err := session.Save(); err != nil {
		log := logutil.GetOrDefault(c.Request.Context())
		log.Warn().Err(err).Msg("failed to save demoted session")
	}
	c.Set(ContextAccountKey, nil)
}

// expired はセッションがログインから lifetime を過ぎているかどうかを返します。
// issued_at が無い・読めないセッションも期限切れとして扱います。
func (m *Manager) expired(session sessions.Session) bool {
	if m.lifetime <= 0 {
		return false
	}
	issuedAt, ok := session.Get(sessionKeyIssuedAt).(int64)
	if !ok {
		return true
	}
	return m.now().Sub(time.Unix(issuedAt, 0)) > m.lifetime
}

// CurrentAccount はリクエストのアカウントを返します（匿名なら false）。
func CurrentAccount(c *gin.Context) (*account.Account, bool) {
	v, ok := c.Get(ContextAccountKey)
	if !ok {
		return nil, false
	}
	a, ok := v.(*account.Account)
	if !ok || a == nil {
		return nil, false
	}
	return a, true
}

// IsAuthenticated はリクエストが認証済みかどうかを返します。
func IsAuthenticated(c *gin.Context) bool {
	_, ok := CurrentAccount(c)
	return ok
}

// redirectWithFlash はフラッシュメッセージを残してリダイレクトします。
func redirectWithFlash(c *gin.Context, location, message string) {
	session := sessions.Default(c)
	if message != "" {
		session.AddFlash(message)
	}
	if err := session.Save(); err != nil {
		log := logutil.GetOrDefault(c.Request.Context())
		log.Warn().Err(err).Msg("failed to save flash")
	}
	c.Redirect(http.StatusFound, location)
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
