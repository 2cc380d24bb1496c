package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) liveCategories(c *gin.Context) {
	items, err := s.catalog.LiveCategories(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondList(c, items, len(items))
}

func (s *Server) liveStreams(c *gin.Context) {
	items, err := s.catalog.LiveStreams(c.Request.Context(), currentUserID(c), "")
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondList(c, items, len(items))
}

func (s *Server) liveStreamsByCategory(c *gin.Context) {
	items, err := s.catalog.LiveStreams(c.Request.Context(), currentUserID(c), c.Param("category_id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondList(c, items, len(items))
}

func (s *Server) vodCategories(c *gin.Context) {
	items, err := s.catalog.VodCategories(c.Request.Context(), currentUserID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondList(c, items, len(items))
}

func (s *Server) vodStreams(c *gin.Context) {
	items, err := s.catalog.VodStreams(c.Request.Context(), currentUserID(c), c.Param("category_id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondList(c, items, len(items))
}

func (s *Server) vodInfo(c *gin.Context) {
	detail, err := s.catalog.VodDetail(c.Request.Context(), currentUserID(c), c.Param("vod_id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, detail)
}
