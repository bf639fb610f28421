package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Setup builds the gin engine with the case API mounted under /api.
func Setup(handler *CaseHandler) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.GET("/healthz", handler.Health)

	api := r.Group("/api")
	{
		cases := api.Group("/cases")
		{
			cases.POST("", handler.Submit)
			cases.GET("", handler.List)
			cases.GET("/:id", handler.Get)
			cases.POST("/:id/run", handler.Run)
			cases.POST("/:id/cancel", handler.Cancel)
			cases.GET("/:id/verdict", handler.Verdict)
			cases.GET("/:id/transcript", handler.Transcript)
		}

		api.GET("/queue/status", handler.QueueStatus)
	}

	return r
}
