package repair

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Job *Job
}

func NewHandler(job *Job) *Handler {
	return &Handler{Job: job}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/mismatches", h.listMismatches)
	rg.POST("/repair", h.repair)
	rg.POST("/files/:id/sync-metadata", h.syncMetadata)
	rg.POST("/files/sync-metadata", h.syncMetadataBatch)
}

func (h *Handler) listMismatches(c *gin.Context) {
	mismatches, err := h.Job.FindMismatches(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "scan failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(mismatches), "items": mismatches})
}

type repairReq struct {
	FileIDs []string `json:"file_ids,omitempty"`
}

func (h *Handler) repair(c *gin.Context) {
	var req repairReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
	}
	c.JSON(http.StatusOK, h.Job.Repair(c.Request.Context(), Options{FileIDs: req.FileIDs}))
}

func (h *Handler) syncMetadata(c *gin.Context) {
	if err := h.Job.SyncFileMetadataToSeries(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"synced": true})
}

type syncBatchReq struct {
	FileIDs []string `json:"file_ids"`
}

func (h *Handler) syncMetadataBatch(c *gin.Context) {
	var req syncBatchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if len(req.FileIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_ids required"})
		return
	}
	c.JSON(http.StatusOK, h.Job.SyncAllFileMetadataToSeries(c.Request.Context(), req.FileIDs))
}
