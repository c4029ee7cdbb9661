package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"duel-service/config"
	"duel-service/internal/client"
	"duel-service/internal/game"
	"duel-service/internal/handlers"
	"duel-service/internal/repository"
	ws "duel-service/internal/websocket"
	"duel-service/pkg/cache"
	"duel-service/pkg/database"
	"duel-service/pkg/messaging"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.Load()
	logger.Info("configuration loaded")

	pgClient, err := database.NewPostgresClient(&cfg.DB)
	if err != nil {
		logger.Fatal("failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pgClient.Close()
	logger.Info("connected to PostgreSQL")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := pgClient.InitSchema(ctx); err != nil {
		logger.Warn("failed to initialize PostgreSQL schema", zap.Error(err))
	}
	cancel()

	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Warn("failed to connect to Redis, question cache disabled", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
		logger.Info("connected to Redis")
	}

	rabbitClient, err := messaging.NewRabbitMQClient(&cfg.RabbitMQ)
	if err != nil {
		logger.Warn("failed to connect to RabbitMQ, offline invitations disabled", zap.Error(err))
		rabbitClient = nil
	} else {
		defer rabbitClient.Close()
		logger.Info("connected to RabbitMQ")
	}

	questionClient := client.NewQuestionClient(
		cfg.QuestionBank.BaseURL,
		time.Duration(cfg.QuestionBank.TimeoutSec)*time.Second,
	)

	sessionRepo := repository.NewSessionRepository(pgClient.GetDB())
	friendRepo := repository.NewFriendshipRepository(pgClient.GetDB())

	hub := ws.NewHub(logger)

	engineCfg := &game.Config{
		Store:     sessionRepo,
		Directory: game.NewDirectory(),
		Scheduler: game.NewTimerRegistry(),
		Notifier:  hub,
		Questions: questionClient,
		Friends:   friendRepo,
		Logger:    logger,
	}
	if redisClient != nil {
		engineCfg.Cache = cache.NewQuestionCache(redisClient)
	}
	if rabbitClient != nil {
		engineCfg.Invites = rabbitClient
	}
	engine := game.NewEngine(engineCfg)
	hub.SetEngine(engine)

	go hub.Run()
	logger.Info("websocket hub started")

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	if err := engine.RestoreDirectory(ctx); err != nil {
		logger.Warn("failed to restore session directory", zap.Error(err))
	}
	cancel()

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "duel-service",
		})
	})

	router.GET("/ready", func(c *gin.Context) {
		if pgClient == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status": "ready",
		})
	})

	wsHandler := handlers.NewWebSocketHandler(hub, cfg, logger)
	router.GET("/ws", wsHandler.HandleWebSocket)

	httpAddr := ":" + cfg.Server.HTTPPort
	logger.Info("duel service starting", zap.String("addr", httpAddr))

	go func() {
		if err := router.Run(httpAddr); err != nil {
			logger.Fatal("failed to start HTTP server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("duel service stopped")
}
