package invalidate

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"comichub/pkg/models"
)

type Handler struct {
	Orch *Orchestrator
}

func NewHandler(orch *Orchestrator) *Handler {
	return &Handler{Orch: orch}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/files/:id/invalidate", h.invalidateFile)
	rg.POST("/files/invalidate", h.batchInvalidate)
	rg.POST("/series/:id/invalidate", h.invalidateSeries)
}

type fileInvalidateReq struct {
	ComicInfo           *models.FileMetadata `json:"comic_info,omitempty"`
	RefreshFromArchive  *bool                `json:"refresh_from_archive,omitempty"`
	UpdateSeriesLinkage *bool                `json:"update_series_linkage,omitempty"`
}

func (r fileInvalidateReq) options() FileOptions {
	opts := DefaultFileOptions()
	opts.ComicInfo = r.ComicInfo
	if r.RefreshFromArchive != nil {
		opts.RefreshFromArchive = *r.RefreshFromArchive
	}
	if r.UpdateSeriesLinkage != nil {
		opts.UpdateSeriesLinkage = *r.UpdateSeriesLinkage
	}
	return opts
}

func (h *Handler) invalidateFile(c *gin.Context) {
	var req fileInvalidateReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
	}

	res := h.Orch.InvalidateFile(c.Request.Context(), c.Param("id"), req.options())
	status := http.StatusOK
	if !res.Success {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, res)
}

type batchInvalidateReq struct {
	fileInvalidateReq
	FileIDs []string `json:"file_ids"`
}

func (h *Handler) batchInvalidate(c *gin.Context) {
	var req batchInvalidateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if len(req.FileIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_ids required"})
		return
	}
	c.JSON(http.StatusOK, h.Orch.BatchInvalidateFiles(c.Request.Context(), req.FileIDs, req.options()))
}

type seriesInvalidateReq struct {
	SyncToSeriesJSON  *bool    `json:"sync_to_series_json,omitempty"`
	SyncToIssueFiles  bool     `json:"sync_to_issue_files,omitempty"`
	InheritableFields []string `json:"inheritable_fields,omitempty"`
}

func (h *Handler) invalidateSeries(c *gin.Context) {
	var req seriesInvalidateReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
	}

	opts := DefaultSeriesOptions()
	if req.SyncToSeriesJSON != nil {
		opts.SyncToSeriesJSON = *req.SyncToSeriesJSON
	}
	opts.SyncToIssueFiles = req.SyncToIssueFiles
	opts.InheritableFields = req.InheritableFields

	res := h.Orch.InvalidateSeries(c.Request.Context(), c.Param("id"), opts)
	status := http.StatusOK
	if !res.Success {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, res)
}
