package metadata

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"comichub/pkg/models"
)

// Handler previews merges over HTTP: callers post per-source records and get
// back the merged result with full provenance, without anything being
// written. Defaults to the configured source priority when the request
// carries none.
type Handler struct {
	DefaultPriority []models.Source
}

func NewHandler(defaultPriority []models.Source) *Handler {
	return &Handler{DefaultPriority: defaultPriority}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/merge/preview", h.previewSeries)
	rg.POST("/merge/issue/preview", h.previewIssue)
}

type seriesPreviewReq struct {
	Records        map[models.Source]*models.SeriesRecord `json:"records"`
	PriorityOrder  []models.Source                        `json:"priority_order,omitempty"`
	FieldOverrides map[Field]models.Source                `json:"field_overrides,omitempty"`
}

func (h *Handler) previewSeries(c *gin.Context) {
	var req seriesPreviewReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if len(req.Records) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "records required"})
		return
	}
	if !validSources(req.PriorityOrder) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown source in priority_order"})
		return
	}

	merged := MergeSeriesWithAllValues(req.Records, h.options(req.PriorityOrder, req.FieldOverrides))
	if merged == nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no records with data"})
		return
	}
	c.JSON(http.StatusOK, merged)
}

type issuePreviewReq struct {
	Records        map[models.Source]*models.IssueRecord `json:"records"`
	PriorityOrder  []models.Source                       `json:"priority_order,omitempty"`
	FieldOverrides map[Field]models.Source               `json:"field_overrides,omitempty"`
}

func (h *Handler) previewIssue(c *gin.Context) {
	var req issuePreviewReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if len(req.Records) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "records required"})
		return
	}
	if !validSources(req.PriorityOrder) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown source in priority_order"})
		return
	}

	merged := MergeIssueWithAllValues(req.Records, h.options(req.PriorityOrder, req.FieldOverrides))
	if merged == nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no records with data"})
		return
	}
	c.JSON(http.StatusOK, merged)
}

func (h *Handler) options(order []models.Source, overrides map[Field]models.Source) MergeOptions {
	if len(order) == 0 {
		order = h.DefaultPriority
	}
	return MergeOptions{PriorityOrder: order, FieldOverrides: overrides}
}

func validSources(order []models.Source) bool {
	for _, src := range order {
		if !models.KnownSource(src) {
			return false
		}
	}
	return true
}
