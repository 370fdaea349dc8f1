package api

import (
	"os"
	"path/filepath"

	"github.com/pricewatch-dev/pricewatch/internal/config"
	"github.com/pricewatch-dev/pricewatch/internal/middleware"
	"github.com/pricewatch-dev/pricewatch/internal/service"
	"github.com/pricewatch-dev/pricewatch/internal/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func SetupRoutes(
	r *gin.Engine,
	cfg *config.Config,
	userService service.UserService,
	alertService service.AlertService,
	conditionService service.ConditionService,
	prefsService service.PreferencesService,
	statsService service.StatisticsService,
	logService service.LogService,
	wsHandler *ws.WebSocketHandler,
) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	userHandler := NewUserHandler(userService, logService)
	alertHandler := NewAlertHandler(alertService, logService)
	conditionHandler := NewConditionHandler(conditionService, alertService, logService)
	prefsHandler := NewPreferencesHandler(prefsService, logService)
	statsHandler := NewStatisticsHandler(statsService)
	logHandler := NewLogHandler(logService)

	wd, err := os.Getwd()
	if err != nil {
		return
	}

	swaggerJSONPath := filepath.Join(wd, "..", "..", "docs", "swagger.json")
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/docs/swagger.json")))
	r.GET("/docs/swagger.json", func(c *gin.Context) {
		c.File(swaggerJSONPath)
	})

	v1 := r.Group("/api/v1")
	{
		v1.POST("/users/signup", userHandler.SignupUser)
		v1.POST("/users/login", userHandler.Login)

		user := v1.Group("/").Use(middleware.UserAuthMiddleware(userService, cfg.JWTSecret))
		{
			user.GET("/users/me", userHandler.GetMe)
			user.POST("/alerts", alertHandler.CreateAlert)
			user.GET("/alerts", alertHandler.GetUserAlerts)
			user.GET("/alerts/:id", alertHandler.GetAlert)
			user.POST("/conditions", conditionHandler.CreateCondition)
			user.GET("/conditions", conditionHandler.GetUserConditions)
			user.DELETE("/conditions/:id", conditionHandler.DeleteCondition)
			user.GET("/preferences", prefsHandler.GetPreferences)
			user.PUT("/preferences", prefsHandler.UpdatePreferences)
			user.GET("/statistics", statsHandler.GetStatistics)
		}

		internal := v1.Group("/internal").Use(middleware.InternalAuthMiddleware(cfg.ServiceToken))
		{
			internal.POST("/conditions/:id/trigger", conditionHandler.TriggerCondition)
			internal.GET("/logs", logHandler.GetAllLogs)
			internal.GET("/logs/user/:user_id", logHandler.GetLogsByUser)
		}
	}

	r.GET("/ws", wsHandler.HandleConnection)
}
