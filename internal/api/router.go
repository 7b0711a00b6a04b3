package api

import (
	"github.com/gin-gonic/gin"

	"status-dashboard/internal/config"
	"status-dashboard/internal/logging"
)

func NewRouter(h *Handler, hub *Hub, logger *logging.Logger, cfg config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLoggingMiddleware(logger))
	r.Use(CORSMiddleware())

	r.GET("/health", h.Health)

	api := r.Group(cfg.API.BasePath)
	{
		cron := api.Group("/cron", CronSecretRequired(cfg.Auth.CronSecret))
		cron.POST("/backup-check", h.RunBackupCheck)

		admin := api.Group("/admin", AuthMiddleware(cfg.Auth.JWTSecret), AdminRequired())
		admin.POST("/backup-check", h.RunBackupCheck)
		admin.GET("/backup-check/runs", h.ListBackupCheckRuns)
		admin.GET("/filemaker/:server_id/status", h.FileMakerStatus)
		admin.PUT("/filemaker/:server_id/credential", h.SaveFileMakerCredential)
		if hub != nil {
			admin.GET("/ws/backup-checks", hub.ServeWS)
		}
	}
	return r
}
