package main

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yourusername/himitsu/internal/account"
	"github.com/yourusername/himitsu/internal/auth"
	"github.com/yourusername/himitsu/internal/config"
	"github.com/yourusername/himitsu/internal/logutil"
	"github.com/yourusername/himitsu/internal/secrets"
	"github.com/yourusername/himitsu/internal/web"
)

// newRouter はミドルウェアとルーティングを組み立てます。
func newRouter(cfg *config.Config, logger zerolog.Logger, store account.Store, sessionStore sessions.Store) (*gin.Engine, error) {
	router := gin.New()
	router.Use(gin.Recovery(), logutil.Middleware(logger))

	// OAuth のコールバックは Google からのトップレベル遷移なので SameSite は Lax にする
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.SessionMaxAgeSeconds,
		HttpOnly: true,
		Secure:   cfg.GinMode == gin.ReleaseMode,
		SameSite: http.SameSiteLaxMode,
	})
	router.Use(sessions.Sessions(auth.SessionCookieName, sessionStore))

	if origins := cfg.AllowedOrigins(); len(origins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = origins
		corsConfig.AllowCredentials = true
		router.Use(cors.New(corsConfig))
	}

	if err := web.Install(router); err != nil {
		return nil, err
	}

	var provider auth.IdentityProvider
	if cfg.GoogleEnabled() {
		provider = auth.NewGoogleProvider(auth.GoogleConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleCallbackURL,
			UserInfoURL:  cfg.GoogleUserInfoURL,
		})
	}

	authManager := auth.NewManager(store, auth.NewBcryptHasher(cfg.BcryptCost), provider,
		auth.WithSessionLifetime(cfg.SessionMaxAge()))
	setupRoutes(router, authManager, secrets.NewService(store), web.Pages{GoogleEnabled: authManager.GoogleEnabled()})
	return router, nil
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "himitsu",
	})
}

// setupRoutes は画面と認証周りの配線を行います。
func setupRoutes(router *gin.Engine, authManager *auth.Manager, secretService *secrets.Service, pages web.Pages) {
	// セッションを参照しないヘルスチェックを先に登録
	router.GET("/health", handleHealth)

	router.Use(authManager.Identify())

	router.GET("/", pages.Home)
	router.GET("/login", pages.Login)
	router.GET("/register", pages.Register)

	router.POST("/register", authManager.Register)
	router.POST("/login", authManager.Login)
	router.GET("/logout", authManager.Logout)

	router.GET("/auth/google", authManager.GoogleStart)
	router.GET("/auth/google/secrets", authManager.GoogleCallback)

	// 一覧は未ログインでも閲覧可能
	router.GET("/secrets", secrets.ListHandler(secretService))

	protected := router.Group("")
	protected.Use(authManager.RequireLogin())
	{
		protected.GET("/submit", secrets.FormHandler())
		protected.POST("/submit", secrets.SubmitHandler(secretService))
	}
}
