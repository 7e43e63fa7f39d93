package api

import (
	"net/http"

	"hotelops/internal/extraction"

	"github.com/gin-gonic/gin"
)

// ListMenuItems serves the cached listing, filling the cache on a miss.
func (s *Server) ListMenuItems(c *gin.Context) {
	if items, ok := s.menu.Items(); ok {
		c.Header("X-Cache", "HIT")
		c.JSON(http.StatusOK, gin.H{"items": items})
		return
	}
	items, err := s.deps.Menu.ListMenuItems(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	s.menu.SetItems(items)
	c.Header("X-Cache", "MISS")
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// CreateMenuItem saves one record. The wizard's batcher and the REST client
// both end up here.
func (s *Server) CreateMenuItem(c *gin.Context) {
	var item extraction.Candidate
	if err := c.ShouldBindJSON(&item); err != nil {
		badRequest(c, err.Error())
		return
	}
	id, err := s.deps.Menu.CreateMenuItem(c.Request.Context(), item)
	if err != nil {
		respondError(c, err)
		return
	}
	s.menu.InvalidateMenu()
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (s *Server) ListCategories(c *gin.Context) {
	cats, err := s.deps.Menu.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": cats})
}
