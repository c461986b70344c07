package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang/glog"

	"chatcore/internal/config"
	"chatcore/internal/httpserver"
	"chatcore/internal/presence"
	"chatcore/internal/security"
	"chatcore/internal/store/sqlite"
	"chatcore/internal/ws"
)

func main() {
	flag.Parse()
	defer glog.Flush()

	cfg, err := config.Load()
	if err != nil {
		glog.Exitf("failed to load config: %v", err)
	}

	db, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		glog.Exitf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := sqlite.Migrate(db); err != nil {
		glog.Exitf("failed to run migrations: %v", err)
	}

	tokenSvc := security.NewTokenService(cfg.JWTSecret, time.Duration(cfg.AccessTokenMinutes)*time.Minute)
	passwordHasher := security.NewPasswordHasher(0)

	encryptor, err := security.NewEncryptor([]byte(cfg.EncryptKey))
	if err != nil {
		glog.Exitf("failed to initialize encryptor: %v", err)
	}

	hub := ws.NewHub()
	registry := presence.NewRegistry()

	router := httpserver.NewRouter(cfg, db, hub, registry, tokenSvc, passwordHasher, encryptor)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		glog.Infof("listening on %s", cfg.HTTPAddr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			glog.Exitf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	glog.Infof("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Stop accepting and drain in-flight requests first, then drop the
	// hijacked websocket connections Shutdown does not cover.
	if err := srv.Shutdown(ctx); err != nil {
		glog.Errorf("graceful shutdown failed: %v", err)
	}
	hub.CloseAll()
}
