package router

import (
	"github.com/dixitakash2514/argos-mob-proposal/config"
	"github.com/dixitakash2514/argos-mob-proposal/internal/handler"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

// 流式接口和 PDF 不压缩，SSE 需要逐帧刷出
var uncompressed = []string{
	`^/api/chat$`,
	`^/api/proposals/[^/]+/session/(start|messages|confirm|manual)$`,
	`^/api/proposals/[^/]+/pdf$`,
}

func Setup(
	cfg *config.Config,
	proposalHandler *handler.ProposalHandler,
	sessionHandler *handler.SessionHandler,
	chatHandler *handler.ChatHandler,
	renderHandler *handler.RenderHandler,
) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
	}))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPathsRegexs(uncompressed)))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		proposals := api.Group("/proposals")
		{
			proposals.POST("", proposalHandler.Create)
			proposals.GET("", proposalHandler.List)
			proposals.GET("/:id", proposalHandler.Get)
			proposals.PATCH("/:id", proposalHandler.Update)
			proposals.DELETE("/:id", proposalHandler.Delete)
			proposals.POST("/:id/revise", proposalHandler.Revise)
			proposals.GET("/:id/revisions", proposalHandler.ListRevisions)

			proposals.GET("/:id/preview", renderHandler.Preview)
			proposals.GET("/:id/pdf", renderHandler.PDF)
			proposals.GET("/:id/export.txt", renderHandler.ExportText)
			proposals.GET("/:id/document", renderHandler.Document)

			session := proposals.Group("/:id/session")
			{
				session.GET("", sessionHandler.State)
				session.POST("/start", sessionHandler.Start)
				session.POST("/messages", sessionHandler.SendMessage)
				session.POST("/confirm", sessionHandler.Confirm)
				session.POST("/jump", sessionHandler.Jump)
				session.POST("/offline", sessionHandler.SetOffline)
				session.GET("/manual", sessionHandler.ManualForm)
				session.POST("/manual", sessionHandler.SubmitManual)
				session.POST("/reload", sessionHandler.Reload)
			}
		}

		api.POST("/render", renderHandler.Layout)
		api.POST("/chat", chatHandler.Stream)
	}

	return r
}
