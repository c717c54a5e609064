package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"trialwatch.app/engine/internal/http/handler"
	"trialwatch.app/engine/internal/http/middleware"
	"trialwatch.app/engine/internal/service"
)

type RouterConfig struct {
	AdminAPIKey string
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		user := v1.Group("")
		user.Use(middleware.RequireUser())

		taskHandler := handler.NewTaskHandler(services.Tasks())
		TaskRouter(user.Group("/tasks"), taskHandler)

		notificationHandler := handler.NewNotificationHandler(services.ReadTracker())
		NotificationRouter(user.Group("/notifications"), notificationHandler)

		pipelineHandler := handler.NewPipelineHandler(services.Pipeline())
		PipelineRouter(user.Group(""), pipelineHandler)

		ruleHandler := handler.NewThresholdRuleHandler(services.ThresholdRules())
		ThresholdRuleRouter(user.Group("/threshold-rules"), ruleHandler)

		admin := v1.Group("/admin")
		admin.Use(middleware.RequireAdminAPIKey(cfg.AdminAPIKey))
		adminHandler := handler.NewAdminHandler(services.Repair(), services.Membership())
		AdminRouter(admin, adminHandler)
	}
}
