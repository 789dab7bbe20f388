package main

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/dfryer1193/inkpress/blog/application"
	"github.com/dfryer1193/inkpress/blog/persistence"
	"github.com/dfryer1193/inkpress/internal/config"
	"github.com/dfryer1193/inkpress/internal/middleware"
	"github.com/dfryer1193/inkpress/internal/rest"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found; relying on the environment")
	}
	cfg := config.LoadConfig()

	postRepo := persistence.NewPostRepository(cfg.ContentDir)
	mediaRepo := persistence.NewMediaRepository(cfg.UploadsDir, mediaBaseURL(cfg.BaseURL))
	renderer := application.NewMarkdownRenderer(application.RendererOptions{
		SiteHost: hostOf(cfg.BaseURL),
	})

	postService := application.NewPostService(postRepo, renderer)
	feedService := application.NewFeedService(postService, application.SiteInfo{
		BaseURL:     cfg.BaseURL,
		Name:        cfg.SiteName,
		Description: cfg.SiteDescription,
	})

	service := gin.New()
	service.Use(middleware.RequestLogger())
	service.Use(gin.CustomRecovery(middleware.HandlePanics()))

	rest.NewApi(service,
		rest.NewPostsHandler(postService),
		rest.NewFeedsHandler(feedService),
		rest.NewMediaHandler(mediaRepo),
	)
	service.Static("/uploads", cfg.UploadsDir)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: service,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("content", cfg.ContentDir).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	log.Info().Msg("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to shutdown server")
	}

	log.Info().Msg("Server stopped")
}

func hostOf(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	return u.Host
}

func mediaBaseURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/uploads"
}
