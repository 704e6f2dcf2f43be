package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Bimandi111/employee-managment-system/internal/config"
	"github.com/Bimandi111/employee-managment-system/internal/db"
	internalhttp "github.com/Bimandi111/employee-managment-system/internal/http"
	"github.com/Bimandi111/employee-managment-system/internal/ratelimit"
	"github.com/Bimandi111/employee-managment-system/internal/repository"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connection failed: %v", err)
	}
	defer pool.Close()

	var limiter *ratelimit.LoginLimiter
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("redis unavailable, login throttling disabled: %v", err)
		} else {
			limiter = ratelimit.NewLoginLimiter(client, cfg.LoginRateLimit, cfg.LoginRateWindow)
		}
	}

	store := repository.NewStore(pool)
	server := internalhttp.NewServer(cfg, store, limiter)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("employee-management listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
