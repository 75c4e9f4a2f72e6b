package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"marketbrief/store"
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 100
)

// RegisterArticleRoutes registers article read endpoints.
func RegisterArticleRoutes(r *gin.Engine, st store.Store) {
	g := r.Group("/api/articles")
	g.GET("/recent", handleRecentArticles(st))
}

// handleRecentArticles returns the most recently ingested articles.
// Query params: limit (int, optional, capped).
func handleRecentArticles(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := defaultRecentLimit
		if v := c.Query("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
				return
			}
			limit = n
		}
		if limit > maxRecentLimit {
			limit = maxRecentLimit
		}

		articles, err := st.RecentArticles(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load articles: " + err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"count":    len(articles),
			"articles": articles,
		})
	}
}
