package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/skilltrade/backend/internal/config"
	"github.com/skilltrade/backend/internal/jobs"
	"github.com/skilltrade/backend/internal/logger"
	appMiddleware "github.com/skilltrade/backend/internal/middleware"
	"github.com/skilltrade/backend/internal/seed"
	"github.com/skilltrade/backend/internal/server"
	"github.com/skilltrade/backend/internal/services"
	"github.com/skilltrade/backend/internal/storage"
	"github.com/skilltrade/backend/internal/web"
	ws "github.com/skilltrade/backend/internal/websocket"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.ServerAddress = addr
		}
		logger.Init(cfg.LogLevel, cfg.LogFormat)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return serve(ctx, cfg)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides SERVER_ADDRESS)")
}

func serve(ctx context.Context, cfg *config.Config) error {
	store, err := storage.Open(ctx, storage.Options{
		Driver:   cfg.StoreDriver,
		DataDir:  cfg.DataDir,
		MongoURI: cfg.MongoURI,
		MongoDB:  cfg.MongoDB,
		MongoTLS: cfg.MongoTLS,
	})
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	data, err := seed.Load()
	if err != nil {
		return err
	}

	renderer, err := web.NewRenderer()
	if err != nil {
		return fmt.Errorf("loading templates: %w", err)
	}

	images, err := services.NewImageService(cfg.UploadDir)
	if err != nil {
		return err
	}

	hub := ws.NewHub()
	local := services.NewLocalStore(store)
	profiles := services.NewProfileService(local)
	posts := services.NewPostService(local)
	feed := services.NewFeedService(posts, data.FeedPosts(time.Now()))
	messaging := services.NewMessagingService(data, hub)

	janitor, err := jobs.NewJanitor(cfg.JanitorSchedule, cfg.SessionIdleTTL, map[string]jobs.Pruner{
		"likes":   feed,
		"inboxes": messaging,
	})
	if err != nil {
		return err
	}

	handler := server.NewRouter(server.Deps{
		Sessions:        appMiddleware.NewSessions(cfg.JWTSecret, cfg.JWTExpiration, cfg.CookieSecure),
		Profiles:        profiles,
		Posts:           posts,
		Feed:            feed,
		Messaging:       messaging,
		Images:          images,
		Hub:             hub,
		Renderer:        renderer,
		AllowedOrigins:  cfg.AllowedOrigins,
		UploadDir:       cfg.UploadDir,
		MaxUploadSizeMB: cfg.MaxUploadSizeMB,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	janitor.Start()
	g.Go(func() error {
		<-gctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		janitor.Stop(stopCtx)
		return nil
	})

	g.Go(func() error {
		log.Info().
			Str("addr", cfg.ServerAddress).
			Str("store", cfg.StoreDriver).
			Str("version", version).
			Msg("SkillTrade server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
