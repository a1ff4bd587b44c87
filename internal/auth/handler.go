package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/himitsu/internal/account"
	"github.com/yourusername/himitsu/internal/logutil"
)

type credentialsForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

// Register は POST /register のハンドラーです。
func (m *Manager) Register(c *gin.Context) {
	log := logutil.GetOrDefault(c.Request.Context())

	var form credentialsForm
	if err := c.ShouldBind(&form); err != nil || strings.TrimSpace(form.Username) == "" {
		redirectWithFlash(c, "/register", ErrInvalidInput.Message)
		return
	}

	digest, err := m.hasher.Hash(form.Password)
	if err != nil {
		log.Error().Err(err).Msg("password hashing failed")
		redirectWithFlash(c, "/register", ErrHashFailure.Message)
		return
	}

	created := account.NewLocal(form.Username, digest)
	if err := m.store.Create(c.Request.Context(), created); err != nil {
		if errors.Is(err, account.ErrUsernameTaken) {
			redirectWithFlash(c, "/register", ErrUsernameTaken.Message)
			return
		}
		log.Error().Err(err).Msg("failed to create account")
		redirectWithFlash(c, "/login", ErrStoreUnavailable.Message)
		return
	}

	if err := m.establish(c, created); err != nil {
		log.Error().Err(err).Msg("failed to establish session after registration")
		redirectWithFlash(c, "/login", "")
		return
	}
	c.Redirect(http.StatusFound, "/secrets")
}

// Login は POST /login のハンドラーです。
func (m *Manager) Login(c *gin.Context) {
	var form credentialsForm
	if err := c.ShouldBind(&form); err != nil {
		redirectWithFlash(c, "/login", ErrInvalidCredentials.Message)
		return
	}

	a, err := m.authenticator.Authenticate(c.Request.Context(), PasswordCredentials{
		Username: form.Username,
		Password: form.Password,
	})
	if err != nil {
		m.failLogin(c, err)
		return
	}

	if err := m.establish(c, a); err != nil {
		m.failLogin(c, newError(ErrStoreUnavailable, err))
		return
	}
	c.Redirect(http.StatusFound, "/secrets")
}

// Logout は GET /logout のハンドラーです。セッションが無くても成功します。
func (m *Manager) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		log := logutil.GetOrDefault(c.Request.Context())
		log.Warn().Err(err).Msg("failed to destroy session")
	}
	c.Set(ContextAccountKey, nil)
	c.Redirect(http.StatusFound, "/")
}

// GoogleStart は GET /auth/google のハンドラーです。
func (m *Manager) GoogleStart(c *gin.Context) {
	if m.provider == nil {
		redirectWithFlash(c, "/login", ErrOAuthFailure.Message)
		return
	}

	state, err := generateToken()
	if err != nil {
		m.failLogin(c, newError(ErrOAuthFailure, err))
		return
	}
	session := sessions.Default(c)
	session.Set(sessionKeyOAuthState, state)
	if err := session.Save(); err != nil {
		m.failLogin(c, newError(ErrOAuthFailure, err))
		return
	}
	c.Redirect(http.StatusFound, m.provider.AuthCodeURL(state))
}

// GoogleCallback は GET /auth/google/secrets のハンドラーです。
func (m *Manager) GoogleCallback(c *gin.Context) {
	if m.provider == nil {
		redirectWithFlash(c, "/login", ErrOAuthFailure.Message)
		return
	}

	session := sessions.Default(c)
	expected, _ := session.Get(sessionKeyOAuthState).(string)
	session.Delete(sessionKeyOAuthState)

	if reason := c.Query("error"); reason != "" {
		m.failLogin(c, newError(ErrOAuthFailure, errors.New(reason)))
		return
	}
	received := c.Query("state")
	if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(received)) != 1 {
		m.failLogin(c, newError(ErrOAuthFailure, errors.New("state mismatch")))
		return
	}

	profile, err := m.provider.Exchange(c.Request.Context(), c.Query("code"))
	if err != nil {
		m.failLogin(c, err)
		return
	}

	a, err := m.authenticator.Authenticate(c.Request.Context(), ProfileCredentials{Profile: profile})
	if err != nil {
		m.failLogin(c, err)
		return
	}

	if err := m.establish(c, a); err != nil {
		m.failLogin(c, newError(ErrStoreUnavailable, err))
		return
	}
	c.Redirect(http.StatusFound, "/secrets")
}

// failLogin はエラー種別に応じてログを残し、/login に戻します。
func (m *Manager) failLogin(c *gin.Context, err error) {
	log := logutil.GetOrDefault(c.Request.Context())

	message := ErrInvalidCredentials.Message
	var authErr *Error
	if errors.As(err, &authErr) {
		message = authErr.Message
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		log.Info().Msg("login rejected")
	case errors.Is(err, ErrOAuthFailure):
		log.Warn().Err(err).Msg("oauth login failed")
	default:
		log.Error().Err(err).Msg("login failed")
	}
	redirectWithFlash(c, "/login", message)
}
