package secrets

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/himitsu/internal/account"
	"github.com/yourusername/himitsu/internal/auth"
	"github.com/yourusername/himitsu/internal/logutil"
	"github.com/yourusername/himitsu/internal/web"
)

// Lister はシークレット一覧を返すサービスが実装します。
type Lister interface {
	List(ctx context.Context) ([]Entry, error)
}

// Submitter はシークレットを保存するサービスが実装します。
type Submitter interface {
	Submit(ctx context.Context, accountID, secret string) error
}

// ListHandler は GET /secrets のハンドラーを返します。ログインは不要です。
func ListHandler(svc Lister) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := svc.List(c.Request.Context())
		if err != nil {
			log := logutil.GetOrDefault(c.Request.Context())
			log.Error().Err(err).Msg("failed to list secrets")
			web.RenderError(c, http.StatusServiceUnavailable, "シークレットを読み込めませんでした。")
			return
		}
		web.Render(c, http.StatusOK, "secrets.html", gin.H{"secrets": entries})
	}
}

// FormHandler は GET /submit のハンドラーを返します。RequireLogin の後ろに置きます。
func FormHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := auth.CurrentAccount(c)
		if !ok {
			c.Redirect(http.StatusFound, "/login")
			return
		}
		web.Render(c, http.StatusOK, "submit.html", gin.H{"current": a.SecretText()})
	}
}

type submitForm struct {
	Secret string `form:"secret"`
}

// SubmitHandler は POST /submit のハンドラーを返します。
// 書き込み先はリクエストのパラメーターではなくセッションのアカウントです。
func SubmitHandler(svc Submitter) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := auth.CurrentAccount(c)
		if !ok {
			c.Redirect(http.StatusFound, "/login")
			return
		}

		var form submitForm
		if err := c.ShouldBind(&form); err != nil {
			c.Redirect(http.StatusFound, "/submit")
			return
		}

		err := svc.Submit(c.Request.Context(), a.ID, form.Secret)
		switch {
		case err == nil:
			c.Redirect(http.StatusFound, "/secrets")
		case errors.Is(err, ErrEmptySecret):
			c.Redirect(http.StatusFound, "/submit")
		case errors.Is(err, account.ErrNotFound):
			// ガード通過後にアカウントが消えた場合は匿名に戻す
			auth.ForgetIdentity(c)
			c.Redirect(http.StatusFound, "/login")
		default:
			log := logutil.GetOrDefault(c.Request.Context())
			log.Error().Err(err).Str("account", a.ID).Msg("failed to submit secret")
			web.RenderError(c, http.StatusServiceUnavailable, "シークレットを保存できませんでした。")
		}
	}
}
