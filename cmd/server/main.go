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

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mathduel/internal/cache"
	"mathduel/internal/config"
	"mathduel/internal/engine"
	"mathduel/internal/question"
	"mathduel/internal/repository"
	"mathduel/internal/service"
	"mathduel/internal/transport/rest"
	"mathduel/internal/transport/ws"
)

func main() {
	log.Println("started")
	ctx := context.Background()

	cfg := config.Load()

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(ctx)

	// Ping MongoDB
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB:", err)
	}
	log.Println("Connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection
	redisAddr := strings.TrimPrefix(cfg.RedisAddr, "redis://")

	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})
	defer rdb.Close()

	// Ping Redis
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}
	log.Println("Connected to Redis")

	// Initialize WebSocket hub
	wsHub := ws.NewHub()
	log.Println("WebSocket hub started")

	// Initialize repositories and caches
	resultRepo := repository.NewResultRepo(db)
	leaderboard := cache.NewLeaderboardCache(rdb)

	// Initialize the duel engine
	registry := engine.NewRegistry()
	coordinator := engine.NewCoordinator(registry, question.NewGenerator())

	// Initialize services
	authSvc := service.NewAuthService()
	duelSvc := service.NewDuelService(registry, coordinator, resultRepo, leaderboard)

	// Inject broadcaster (wsHub implements service.Broadcaster)
	duelSvc.SetBroadcaster(wsHub)

	// Create router with container
	container := &rest.Container{
		AuthService: authSvc,
		DuelService: duelSvc,
		WSHub:       wsHub,
	}

	router := rest.NewRouter(container)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.HTTPPort)
		log.Println("Endpoints:")
		log.Println("  POST /v1/auth/register")
		log.Println("  POST /v1/duels")
		log.Println("  POST /v1/duels/{roomId}/join")
		log.Println("  GET  /v1/duels/{roomId}")
		log.Println("  GET  /v1/leaderboard")
		log.Println("  GET  /v1/players/{playerId}/history")
		log.Println("  WS   /v1/ws/duels/{roomId}")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
