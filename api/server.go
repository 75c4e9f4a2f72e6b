// Package api exposes the HTTP surface: ingestion control, article reads
// and a health probe.
package api

import (
	"github.com/gin-gonic/gin"

	"marketbrief/pipeline"
	"marketbrief/store"
)

// NewRouter constructs a Gin engine with registered routes.
func NewRouter(p *pipeline.Pipeline, st store.Store) *gin.Engine {
	r := gin.New()
	// Minimal middleware: recovery; logger optional to reduce verbosity
	r.Use(gin.Recovery())

	RegisterIngestionRoutes(r, p)
	RegisterArticleRoutes(r, st)
	RegisterHealthRoutes(r)
	return r
}
