package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/pricewatch-dev/pricewatch/internal/api"
	"github.com/pricewatch-dev/pricewatch/internal/config"
	"github.com/pricewatch-dev/pricewatch/internal/middleware"
	"github.com/pricewatch-dev/pricewatch/internal/models"
	"github.com/pricewatch-dev/pricewatch/internal/repository"
	"github.com/pricewatch-dev/pricewatch/internal/service"
	"github.com/pricewatch-dev/pricewatch/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Ping(ctx, nil); err != nil {
		log.Fatalf("Failed to ping MongoDB: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to ping Redis: %v", err)
	}

	hub := ws.NewHub()
	go hub.Run()

	wsHandler := ws.NewWebSocketHandler(hub)

	db := cfg.MongoDatabase
	alertRepo := repository.NewAlertRepository(client, db, "alerts")
	conditionRepo := repository.NewConditionRepository(client, db, "conditions")
	prefsRepo := repository.NewPreferencesRepository(client, db, "preferences")
	resultRepo := repository.NewDeliveryResultRepository(client, db, "delivery_results")
	userRepo := repository.NewUserRepository(client, db, "users")
	logRepo := repository.NewLogRepository(client, db, "logs")
	rateRepo := repository.NewRateLimitRepository(redisClient)

	logService := service.NewLogService(logRepo)
	userService := service.NewUserService(userRepo, prefsRepo, cfg.JWTSecret)
	prefsService := service.NewPreferencesService(prefsRepo)
	conditionService := service.NewConditionService(conditionRepo, logService, nil)
	statsService := service.NewStatisticsService(alertRepo, resultRepo, nil)

	senders := map[models.Channel]service.ChannelSender{
		models.ChannelPush:  service.NewLogSender(),
		models.ChannelEmail: service.NewLogSender(),
		models.ChannelSMS:   service.NewLogSender(),
	}

	gate := service.NewDeliveryGate(nil)
	dispatcher := service.NewDispatcher(alertRepo, resultRepo, rateRepo, senders, gate, logService, hub, cfg.SendTimeout, nil)
	alertService := service.NewAlertService(alertRepo, conditionRepo, prefsRepo, dispatcher, logService, hub, nil)

	scheduler := service.NewRetryScheduler(alertRepo, conditionRepo, prefsRepo, dispatcher, hub, cfg.RetryPoll, nil)
	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	defer stopScheduler()
	go scheduler.Run(schedulerCtx)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware())

	api.SetupRoutes(r, cfg, userService, alertService, conditionService, prefsService, statsService, logService, wsHandler)

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("Starting server on %s", addr)
	log.Printf("WebSocket endpoint available at ws://%s/ws", cfg.BaseURL)
	log.Printf("Swagger UI available at %s/swagger/index.html", cfg.BaseURL)

	if err := r.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
