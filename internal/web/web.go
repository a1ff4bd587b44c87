// Package web はHTMLテンプレートと静的ファイル、および表示専用ページのハンドラーを提供します。
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/himitsu/internal/auth"
	"github.com/yourusername/himitsu/internal/logutil"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Install はテンプレートと /static を router に登録します。
func Install(router *gin.Engine) error {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}
	router.SetHTMLTemplate(tmpl)

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return fmt.Errorf("static assets: %w", err)
	}
	router.StaticFS("/static", http.FS(static))
	return nil
}

// Pages は認証不要の表示ページです。
type Pages struct {
	GoogleEnabled bool
}

// Home は GET / のハンドラーです。
func (p Pages) Home(c *gin.Context) {
	Render(c, http.StatusOK, "home.html", gin.H{})
}

// Login は GET /login のハンドラーです。
func (p Pages) Login(c *gin.Context) {
	Render(c, http.StatusOK, "login.html", gin.H{"googleEnabled": p.GoogleEnabled})
}

// Register は GET /register のハンドラーです。
func (p Pages) Register(c *gin.Context) {
	Render(c, http.StatusOK, "register.html", gin.H{"googleEnabled": p.GoogleEnabled})
}

// Render は共通の値（ログイン状態・フラッシュメッセージ）を加えてテンプレートを描画します。
func Render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["authenticated"] = auth.IsAuthenticated(c)
	data["flashes"] = takeFlashes(c)
	c.HTML(status, name, data)
}

// RenderError はエラーページを描画します。
func RenderError(c *gin.Context, status int, message string) {
	Render(c, status, "error.html", gin.H{"message": message})
}

func takeFlashes(c *gin.Context) []string {
	session := sessions.Default(c)
	raw := session.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := session.Save(); err != nil {
		log := logutil.GetOrDefault(c.Request.Context())
		log.Warn().Err(err).Msg("failed to consume flashes")
	}
	out := make([]string, 0, len(raw))
	for _, f := range raw {
		if s, ok := f.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
