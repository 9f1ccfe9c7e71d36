package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"ianua/api/internal/app"
	"ianua/api/internal/backup"
	"ianua/api/internal/catalog"
	"ianua/api/internal/config"
	"ianua/api/internal/export"
	"ianua/api/internal/history"
	"ianua/api/internal/push"
	"ianua/api/internal/search"
	"ianua/api/internal/store"
	"ianua/api/internal/translate"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	pg := store.NewPostgres(db)
	historyService := history.New(cfg.HistoryDir)
	hub := push.NewHub()

	// service is created below; the snapshot closures dereference it at
	// call time, after Bootstrap.
	var service *app.Service
	snapshot := func() catalog.Document {
		doc, _ := service.Document()
		return doc
	}

	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meiliClient.Close()
	}
	searchService := search.NewService(meiliClient, search.NewMemory(snapshot))

	var relay *push.Relay
	if strings.TrimSpace(cfg.RedisURL) != "" {
		relay, err = push.NewRelay(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer relay.Close()
	}

	var translator translate.Translator
	var primary, fallback translate.Provider
	if strings.TrimSpace(cfg.DeepLAPIKey) != "" {
		primary = translate.NewDeepL(cfg.DeepLBaseURL, cfg.DeepLAPIKey)
	}
	if strings.TrimSpace(cfg.GeminiAPIKey) != "" {
		fallback = translate.NewGemini(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel)
	}
	if primary != nil || fallback != nil {
		translator = translate.NewOrchestrator(primary, fallback)
	}

	var remote backup.Archiver
	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		minioClient, merr := backup.NewMinio(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if merr != nil {
			log.Printf("backup: object store unavailable, local snapshots only: %v", merr)
		} else {
			remote = minioClient
		}
	}
	backupService := backup.NewService(backup.NewDir(cfg.SnapshotsDir), remote)

	deps := app.Deps{
		Store:      pg,
		History:    historyService,
		Hub:        hub,
		Search:     searchService,
		Translator: translator,
		Backup:     backupService,
		Exporter:   export.NewService(snapshot),
		Pinger:     pg,
	}
	if relay != nil {
		deps.Relay = relay
	}
	service = app.NewService(cfg.JWTSecret, cfg.AdminSecret, cfg.SessionTTL, deps)

	if err := service.Bootstrap(ctx); err != nil {
		log.Printf("WARNING: bootstrap error (will retry on next restart): %v", err)
	}

	if relay != nil {
		go relay.Listen(ctx, func(revision int64) {
			if err := service.Refresh(ctx); err != nil {
				log.Printf("push: refresh after relay revision %d: %v", revision, err)
			}
		})
	}

	wsHandler := push.Handler(hub, func() (catalog.Document, int64) {
		return service.Document()
	})

	httpServer := app.NewHTTPServer(service, wsHandler, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Ianua API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
