package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	httpapi "github.com/yourorg/lead-intake-api/http"
	"github.com/yourorg/lead-intake-api/internal/env"
	"github.com/yourorg/lead-intake-api/internal/events"
	"github.com/yourorg/lead-intake-api/internal/forward"
	"github.com/yourorg/lead-intake-api/internal/redisx"
	"github.com/yourorg/lead-intake-api/internal/store"
)

func main() {
	_ = godotenv.Load()

	port := env.GetInt("PORT", 8000)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := httpapi.TransformDeps{CacheTTL: env.GetDuration("CACHE_TTL", 10*time.Minute)}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cache := redisx.New(addr, os.Getenv("REDIS_PASSWORD"), env.GetInt("REDIS_DB", 0))
		ctx, cancel := context.WithTimeout(rootCtx, 5*time.Second)
		if err := cache.Ping(ctx); err != nil {
			log.Printf("[WARN] redis unavailable, running without response cache: %v", err)
		} else {
			deps.Cache = cache
		}
		cancel()
	}

	if dsn := os.Getenv("PG_DSN"); dsn != "" {
		st, err := store.Open(dsn)
		if err != nil {
			log.Fatalf("store open error: %v", err)
		}
		defer st.DB.Close()
		ctx, cancel := context.WithTimeout(rootCtx, 10*time.Second)
		if err := st.Ping(ctx); err != nil {
			cancel()
			log.Fatalf("postgres ping error: %v", err)
		}
		if err := st.Migrate(ctx); err != nil {
			cancel()
			log.Fatalf("postgres migrate error: %v", err)
		}
		cancel()
		deps.Store = st
	}

	if hook := os.Getenv("CRM_WEBHOOK_URL"); hook != "" {
		pub := events.NewInMemory(256)
		fwd := forward.New(hook, pub, env.GetFloat("FORWARD_RPS", 2))
		go fwd.Run(rootCtx)
		deps.Pub = pub
		log.Printf("[INFO] forwarding transformed bundles to CRM webhook")
	}

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: BuildRouter(deps)}
	go func() {
		<-rootCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("lead-intake-api listening on :%d", port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
