package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dictionary-annotator/internal/metrics"
)

func (s *Server) router(origins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(s.log))
	r.Use(corsMiddleware(origins))
	r.MaxMultipartMemory = maxUploadBytes

	r.GET("/healthcheck", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	{
		api.GET("/configs", s.listConfigs)
		api.POST("/sessions", s.createSession)
	}

	sess := api.Group("/sessions/:id")
	sess.Use(s.loadSession)
	{
		sess.GET("", s.getSession)
		sess.DELETE("", s.deleteSession)
		sess.PUT("/config", s.selectConfig)
		sess.POST("/table", s.uploadTable)
		sess.GET("/export", s.export)

		// Columns
		sess.PATCH("/columns/:col", s.patchColumn)
		sess.PUT("/columns/:col/levels", s.putLevel)
		sess.PUT("/columns/:col/missing", s.putMissing)

		// Measure cards
		sess.POST("/variables/:var/cards", s.addCard)
		sess.DELETE("/variables/:var/drafts", s.discardDrafts)
		sess.PUT("/cards/:card/term", s.setCardTerm)
		sess.PUT("/cards/:card/columns/:col", s.mapColumn)
		sess.DELETE("/cards/:card/columns/:col", s.unmapColumn)
		sess.DELETE("/cards/:card", s.removeCard)

		// Options
		sess.GET("/options/variables", s.variableOptions)
		sess.GET("/options/terms/:var", s.termOptions)
		sess.GET("/options/formats/:var", s.formatOptions)
		sess.GET("/options/columns/:var", s.columnOptions)
		sess.GET("/options/cards/:card/terms", s.cardTermOptions)
	}

	return r
}
