package search

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Index *Index
}

func NewHandler(index *Index) *Handler {
	return &Handler{Index: index}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/search/autocomplete", h.autocomplete)
}

func (h *Handler) autocomplete(c *gin.Context) {
	kind := c.DefaultQuery("kind", KindGenre)
	switch kind {
	case KindGenre, KindCreator, KindCharacter:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown kind"})
		return
	}

	terms, err := h.Index.Autocomplete(c.Request.Context(), kind, c.Query("q"), 10)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"kind": kind, "items": terms})
}
