package sync

import (
	"context"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	syncs "github.com/movieverse/catalog/services/sync"
)

// Runner triggers one reconciliation run.
type Runner interface {
	Run(ctx context.Context) (*syncs.Summary, error)
}

type Handler struct {
	runner Runner
}

func RegisterHandler(r *gin.Engine, runner Runner) {
	h := &Handler{
		runner: runner,
	}
	gr := r.Group("/sync")
	gr.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"authorization", "x-client-info", "apikey", "content-type"},
	}))
	// Any non-preflight method triggers a run.
	for _, method := range []string{"GET", "POST", "PUT", "PATCH", "DELETE"} {
		gr.Handle(method, "", h.run)
	}
	// The cors middleware answers preflights, but gin only runs group
	// middleware on matched routes.
	gr.OPTIONS("", h.preflight)
}

func (s *Handler) preflight(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

type successResponse struct {
	Success bool `json:"success"`
	*syncs.Summary
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (s *Handler) run(c *gin.Context) {
	summary, err := s.runner.Run(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("sync run failed")
		c.JSON(http.StatusInternalServerError, errorResponse{
			Error: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, successResponse{
		Success: true,
		Summary: summary,
	})
}
