package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tsamuels62019/myanchor-daily-digest/controllers"
	"github.com/tsamuels62019/myanchor-daily-digest/logger"
	"github.com/tsamuels62019/myanchor-daily-digest/utils"
)

// SetupRouter wires the serve-mode ops surface. Health is open for platform
// probes; everything under /api requires the ops token.
func SetupRouter(dc *controllers.DigestController, log zerolog.Logger, opsToken string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.GinMiddleware(log))

	r.GET("/healthz", dc.Health)

	api := r.Group("/api")
	api.Use(utils.RequireToken(opsToken))
	{
		digest := api.Group("/digest")
		{
			digest.POST("/run", dc.TriggerRun)
			digest.GET("/runs", dc.ListRuns)
		}
	}

	return r
}
