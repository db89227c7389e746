package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"baytna-backend/internal/config"
	"baytna-backend/internal/events"
	"baytna-backend/internal/handlers"
	"baytna-backend/internal/middleware"
	"baytna-backend/internal/push"
	"baytna-backend/internal/realtime"
	"baytna-backend/internal/routes"
	"baytna-backend/internal/services"
	"baytna-backend/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Config] %v", err)
	}
	log.Printf("[Config] %s", cfg)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Connect DB
	db, err := config.ConnectDB(cfg.Database)
	if err != nil {
		log.Fatalf("[DB] %v", err)
	}
	if err := config.Migrate(db); err != nil {
		log.Fatalf("[DB] %v", err)
	}

	// 3. Optional infrastructure
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("[Redis] ping failed, sessions will be checked once it is reachable: %v", err)
		}
	}

	var pub events.Publisher = events.Nop{}
	if cfg.RabbitMQURL != "" {
		rp, err := events.NewRabbitPublisher(cfg.RabbitMQURL, events.DefaultExchange)
		if err != nil {
			log.Printf("[Events] %v; domain events disabled", err)
		} else {
			pub = rp
		}
	}

	router := &push.Router{}
	if cfg.Push.VAPIDPrivateKey != "" {
		router.WebPush = push.NewWebPushSender(cfg.Push.VAPIDPublicKey, cfg.Push.VAPIDPrivateKey, cfg.Push.VAPIDSubject)
	}
	if cfg.Push.FirebaseCredentials != "" {
		fcm, err := push.NewFCMSender(ctx, cfg.Push.FirebaseCredentials)
		if err != nil {
			log.Printf("[FCM] %v; native push disabled", err)
		} else {
			router.FCM = fcm
		}
	}
	sender := push.NewBreakerSender(router, config.NewCircuitBreaker("push"))

	hub := realtime.NewHub(cfg.CORSOrigins)
	notifier := services.NewDispatcher(db, sender, hub, pub)
	sessions := session.NewStore(rdb)

	cleaner := services.NewCleaner(db, cfg.Cleanup.NotificationRetention, cfg.Cleanup.HistoryRetention)
	cleanupDone := make(chan struct{})
	go func() {
		defer close(cleanupDone)
		if err := cleaner.Run(ctx, cfg.Cleanup.Interval); err != nil {
			log.Printf("[Cleanup] not started: %v", err)
		}
	}()

	limiter := middleware.NewIPRateLimiter(rate.Limit(cfg.Limits.RPS), cfg.Limits.Burst)
	defer limiter.Stop()

	// 4. Init Router
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	h := handlers.New(handlers.Deps{
		DB:       db,
		Config:   cfg,
		Sessions: sessions,
		Redis:    rdb,
		Hub:      hub,
		Notifier: notifier,
	})
	routes.SetupRoutes(r, h, middleware.NewAuthenticator(db, cfg.Auth.JWTSecret, sessions), limiter, cfg)

	// 5. Run Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("[Server] listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[Server] %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("[Server] shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[Server] shutdown: %v", err)
	}
	<-cleanupDone
	notifier.Wait()

	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Printf("[Redis] close: %v", err)
		}
	}
	if err := pub.Close(); err != nil {
		log.Printf("[Events] close: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	log.Println("[Server] stopped")
}
