package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edupress/school-portal-api/internal/service"
	appErrors "github.com/edupress/school-portal-api/pkg/errors"
	"github.com/edupress/school-portal-api/pkg/response"
)

// NoticeHandler wires HTTP endpoints to the notice service.
type NoticeHandler struct {
	service *service.NoticeService
}

// NewNoticeHandler creates a new handler.
func NewNoticeHandler(svc *service.NoticeService) *NoticeHandler {
	return &NoticeHandler{service: svc}
}

// List godoc
// @Summary List notices
// @Description Returns notices ordered by publish time descending
// @Tags Notices
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /notices [get]
func (h *NoticeHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	notices, pagination, err := h.service.List(c.Request.Context(), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notices, pagination)
}

// Marquee godoc
// @Summary List marquee notices
// @Description Returns the urgent ticker notices, newest first, at most five
// @Tags Notices
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notices/marquee [get]
func (h *NoticeHandler) Marquee(c *gin.Context) {
	notices, err := h.service.ListMarquee(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notices, nil)
}

// Get godoc
// @Summary Get a notice
// @Tags Notices
// @Produce json
// @Param id path string true "Notice ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /notices/{id} [get]
func (h *NoticeHandler) Get(c *gin.Context) {
	notice, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notice, nil)
}

// Create godoc
// @Summary Publish a notice
// @Description Publish a new notice with an optional file attachment
// @Tags Notices
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param content formData string true "Content"
// @Param priority formData string false "Priority (urgent|high|normal|low)"
// @Param target_audience formData string false "Audience (all|students|teachers|parents)"
// @Param is_marquee formData bool false "Show in ticker"
// @Param file formData file false "Attachment"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /notices [post]
func (h *NoticeHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateNoticeRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid notice payload"))
		return
	}

	attachment, closeAttachment, err := readAttachment(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closeAttachment()

	notice, err := h.service.Create(c.Request.Context(), claims.UserID, req, attachment)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, notice)
}

// Update godoc
// @Summary Update a notice
// @Description Update a notice the caller published. A new file replaces the
// attachment; an empty existing_attachment_url clears it.
// @Tags Notices
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Notice ID"
// @Param title formData string true "Title"
// @Param content formData string true "Content"
// @Param priority formData string false "Priority"
// @Param target_audience formData string false "Audience"
// @Param is_marquee formData bool false "Show in ticker"
// @Param existing_attachment_url formData string false "Current attachment URL, empty to clear"
// @Param file formData file false "Replacement attachment"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /notices/{id} [put]
func (h *NoticeHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.UpdateNoticeRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid notice payload"))
		return
	}

	attachment, closeAttachment, err := readAttachment(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closeAttachment()

	notice, err := h.service.Update(c.Request.Context(), c.Param("id"), claims.UserID, req, attachment)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notice, nil)
}

// CleanupAttachments godoc
// @Summary Remove orphaned attachment files
// @Description Deletes stored files older than the retention window that no notice references
// @Tags Notices
// @Produce json
// @Param older_than query string false "Minimum age, e.g. 24h"
// @Success 200 {object} response.Envelope
// @Router /maintenance/attachments/cleanup [post]
func (h *NoticeHandler) CleanupAttachments(c *gin.Context) {
	olderThan, _ := time.ParseDuration(c.Query("older_than"))
	removed, err := h.service.CleanupOrphanAttachments(c.Request.Context(), olderThan)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"removed": removed, "count": len(removed)}, nil)
}

// readAttachment pulls the optional "file" part out of a multipart form. The
// file is handed over as a stream together with its declared size; the
// service rejects oversized uploads before a single byte is read. The
// returned func closes the part and must be deferred by the caller.
func readAttachment(c *gin.Context) (*service.NoticeAttachment, func(), error) {
	noop := func() {}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, noop, nil
		}
		return nil, noop, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attachment upload")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, noop, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to open attachment")
	}

	attachment := &service.NoticeAttachment{
		Filename: fileHeader.Filename,
		Size:     fileHeader.Size,
		Content:  file,
	}
	return attachment, func() { file.Close() }, nil //nolint:errcheck
}
