// Package main はWebサーバーのエントリーポイントです。
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/yourusername/himitsu/internal/config"
	"github.com/yourusername/himitsu/internal/httpserver"
	"github.com/yourusername/himitsu/internal/logutil"
)

func main() {
	app := &cli.App{
		Name:   "himitsu",
		Usage:  "Share your secrets anonymously",
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the web server",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "Create the MongoDB indexes and exit",
				Action: migrate,
			},
		},
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Error().Err(err).Msg("Application failed")
		os.Exit(1)
	}
}

func serve(c *cli.Context) error {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logutil.New(cfg.LogLevel, cfg.LogFormat)
	ctx := logutil.WithLogger(c.Context, logger)

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	store, closeStore, err := openAccountStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	sessionStore, closeSessions, err := openSessionStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSessions()

	router, err := newRouter(cfg, logger, store, sessionStore)
	if err != nil {
		return err
	}

	addr := ":" + cfg.Port
	logger.Info().Str("mode", cfg.GinMode).Str("store", cfg.StoreDriver).Str("sessions", cfg.SessionStore).Msg("Starting server")
	return httpserver.Serve(ctx, addr, router)
}

func migrate(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.StoreDriver != config.StoreDriverMongo {
		return errors.New("migrate requires STORE_DRIVER=mongo")
	}
	logger := logutil.New(cfg.LogLevel, cfg.LogFormat)
	ctx := logutil.WithLogger(c.Context, logger)

	_, closeStore, err := openAccountStore(ctx, cfg)
	if err != nil {
		return err
	}
	closeStore()
	logger.Info().Str("database", cfg.MongoDatabase).Str("collection", cfg.MongoCollection).Msg("Indexes are up to date")
	return nil
}
