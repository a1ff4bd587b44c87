package auth

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/himitsu/internal/logutil"
)

// Identify はセッションのトークンからアカウントを復元するミドルウェアを返します。
// 全ルートに適用し、成功時は ContextAccountKey にアカウントを設定します。
func (m *Manager) Identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		token, ok := session.Get(sessionKeyAccount).(string)
		if !ok || token == "" {
			c.Next()
			return
		}

		if m.expired(session) {
			ForgetIdentity(c)
			c.Next()
			return
		}

		a, err := m.identities.Deserialize(c.Request.Context(), token)
		switch {
		case err == nil:
			c.Set(ContextAccountKey, a)
		case errors.Is(err, ErrIdentityNotFound):
			// 削除済みアカウントを指すセッションは匿名に戻す
			ForgetIdentity(c)
		default:
			log := logutil.GetOrDefault(c.Request.Context())
			log.Error().Err(err).Msg("failed to restore session identity")
		}
		c.Next()
	}
}

// RequireLogin は未ログインのリクエストを /login へリダイレクトするミドルウェアを返します。
func (m *Manager) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAuthenticated(c) {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}
