package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gymsocial/internal/api"
	"gymsocial/internal/config"
	"gymsocial/internal/feed"
	"gymsocial/internal/service"
	"gymsocial/internal/session"
	"gymsocial/internal/social"
	"gymsocial/internal/storage"
	mongostore "gymsocial/internal/store/mongo"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func main() {
	log.Info("starting gymsocial server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("could not load config: %s", err)
	}

	// --- Database Connection ---
	dbClient, err := mongostore.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("could not connect to MongoDB: %s", err)
	}
	defer func() {
		log.Info("disconnecting MongoDB...")
		if err := mongostore.DisconnectDB(dbClient); err != nil {
			log.Errorf("failed to disconnect MongoDB: %s", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Info("database connection established")

	// --- Ensure Indexes ---
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		mongostore.EnsureIndexes(ctx, appDB)
	}()

	// --- Store, Storage, Services ---
	docStore := mongostore.NewStore(appDB)

	fileStorage, err := storage.NewS3Storage(cfg.S3)
	if err != nil {
		log.Fatalf("failed to initialize S3 storage: %s", err)
	}

	authService := service.NewAuthService(docStore, cfg.JWT.Secret, cfg.JWT.Expiration)
	postService := service.NewPostService(docStore)
	userService := service.NewUserService(docStore, fileStorage)
	socialGraph := social.NewService(docStore)
	sessions := session.NewManager(postService)

	// --- HTTP Surface ---
	router := gin.Default()
	api.SetupRoutes(router, cfg.JWT.Secret, api.Handlers{
		Auth:    api.NewAuthHandler(authService),
		Session: api.NewSessionHandler(sessions),
		Feed: api.NewFeedHandler(docStore, socialGraph,
			feed.WithChunkSize(cfg.Feed.ChunkSize),
			feed.WithLimit(cfg.Feed.Limit),
		),
		Profile: api.NewProfileHandler(docStore, userService, socialGraph, cfg.Profile.RecentWindow),
		Social:  api.NewSocialHandler(socialGraph),
		User:    api.NewUserHandler(userService),
		Post:    api.NewPostHandler(postService),
	})

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Infof("server starting on %s", cfg.Server.Address)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen and serve: %s", err)
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("server forced to shutdown: %s", err)
	}

	log.Info("server exiting")
}
