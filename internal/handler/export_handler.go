package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/edupress/school-portal-api/internal/service"
	"github.com/edupress/school-portal-api/pkg/response"
)

// ExportHandler wires HTTP endpoints to the export service.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler creates a new handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Notices godoc
// @Summary Export the notice board
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "Export format (csv|pdf)" default(csv)
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /exports/notices [get]
func (h *ExportHandler) Notices(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	result, err := h.service.NoticeBoard(c.Request.Context(), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	writeExport(c, result)
}

// Students godoc
// @Summary Export the student roster
// @Tags Exports
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "Export format (csv|pdf)" default(csv)
// @Param class_id query string false "Class filter"
// @Param section_id query string false "Section filter"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /exports/students [get]
func (h *ExportHandler) Students(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	result, err := h.service.StudentRoster(c.Request.Context(), format, c.Query("class_id"), c.Query("section_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	writeExport(c, result)
}

func writeExport(c *gin.Context, result *service.ExportResult) {
	c.Header("Content-Disposition", `attachment; filename="`+result.FileName+`"`)
	c.Data(200, result.ContentType, result.Data)
}
