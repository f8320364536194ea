package library

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Files  *FileRepo
	Series *SeriesRepo
}

func NewHandler(files *FileRepo, series *SeriesRepo) *Handler {
	return &Handler{Files: files, Series: series}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/series", h.listSeries)
	r.GET("/series/:id", h.getSeries)
	r.GET("/series/:id/files", h.listSeriesFiles)
	r.GET("/files/:id", h.getFile)
}

func (h *Handler) listSeries(c *gin.Context) {
	out, err := h.Series.All(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(out), "items": out})
}

func (h *Handler) getSeries(c *gin.Context) {
	s, err := h.Series.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if s == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handler) listSeriesFiles(c *gin.Context) {
	files, err := h.Files.ListBySeries(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(files), "items": files})
}

func (h *Handler) getFile(c *gin.Context) {
	f, err := h.Files.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if f == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, f)
}
