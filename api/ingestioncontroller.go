package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"marketbrief/pipeline"
)

// RegisterIngestionRoutes registers ingestion control endpoints.
func RegisterIngestionRoutes(r *gin.Engine, p *pipeline.Pipeline) {
	g := r.Group("/api/ingestion")
	g.POST("/run", handleRunIngestion(p))
	g.GET("/status", handleIngestionStatus(p))
}

// RunIngestionResponse acknowledges an ingestion trigger.
type RunIngestionResponse struct {
	Status string `json:"status"` // "started" or "already_running"
	Force  bool   `json:"force"`
}

// handleRunIngestion triggers a pass in the background and returns
// immediately. Query param force=true discards the dedup history first.
func handleRunIngestion(p *pipeline.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		force, _ := strconv.ParseBool(c.DefaultQuery("force", "false"))

		if p.Status().Running {
			c.JSON(http.StatusOK, RunIngestionResponse{Status: "already_running", Force: force})
			return
		}

		go func() {
			if err := p.Run(context.Background(), force); err != nil && !errors.Is(err, pipeline.ErrAlreadyRunning) {
				log.Printf("Warning: triggered ingestion pass failed: %v", err)
			}
		}()

		c.JSON(http.StatusAccepted, RunIngestionResponse{Status: "started", Force: force})
	}
}

// handleIngestionStatus returns a snapshot of the pipeline state.
func handleIngestionStatus(p *pipeline.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, p.Status())
	}
}
