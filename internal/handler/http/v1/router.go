package v1

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все маршруты API v1
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	// Маршруты с аутентификацией по API-ключу
	protected := api.Group("")
	protected.Use(APIKeyAuthMiddleware(h.cfg, h.logger))
	{
		crises := protected.Group("/crises")
		{
			crises.POST("", h.submitCrisis)
			crises.GET("/:id/status", h.getStatus)
			crises.GET("/:id/report", h.getReport)
		}
		protected.GET("/reports", h.listReports)
		protected.GET("/audit", h.getAudit)
		protected.POST("/monitor/scan", h.scanLocation)
	}

	// Вебхуки голосового провайдера: аутентификация провайдера,
	// а не API-ключ клиента
	api.POST("/voice", h.voicePrompt)
	api.POST("/voice/handle-key", h.voiceHandleKey)

	// Маршрут Health-check
	api.GET("/system/health", h.healthCheck)
}
