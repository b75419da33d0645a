package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edupress/school-portal-api/internal/models"
	"github.com/edupress/school-portal-api/internal/service"
	appErrors "github.com/edupress/school-portal-api/pkg/errors"
	"github.com/edupress/school-portal-api/pkg/response"
)

// FormHandler wires HTTP endpoints to the form service.
type FormHandler struct {
	service *service.FormService
}

// NewFormHandler creates a new handler.
func NewFormHandler(svc *service.FormService) *FormHandler {
	return &FormHandler{service: svc}
}

// ListTypes godoc
// @Summary List active form types
// @Tags Forms
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /forms/types [get]
func (h *FormHandler) ListTypes(c *gin.Context) {
	types, err := h.service.ListTypes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, types, nil)
}

// Submit godoc
// @Summary Submit a form
// @Tags Forms
// @Accept json
// @Produce json
// @Param payload body service.SubmitFormRequest true "Submission payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /forms/submissions [post]
func (h *FormHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.SubmitFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid submission payload"))
		return
	}

	submission, err := h.service.Submit(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, submission)
}

// ListSubmissions godoc
// @Summary List form submissions
// @Tags Forms
// @Produce json
// @Param status query string false "Filter by status"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /forms/submissions [get]
func (h *FormHandler) ListSubmissions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	status := models.SubmissionStatus(c.Query("status"))

	submissions, pagination, err := h.service.ListSubmissions(c.Request.Context(), status, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submissions, pagination)
}

// GetSubmission godoc
// @Summary Get a form submission
// @Tags Forms
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /forms/submissions/{id} [get]
func (h *FormHandler) GetSubmission(c *gin.Context) {
	submission, err := h.service.GetSubmission(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submission, nil)
}

// Process godoc
// @Summary Process a form submission
// @Description Move a submission through its workflow (processing, approved, rejected)
// @Tags Forms
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param payload body service.ProcessSubmissionRequest true "Transition payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /forms/submissions/{id}/status [put]
func (h *FormHandler) Process(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.ProcessSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid transition payload"))
		return
	}

	submission, err := h.service.Process(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, submission, nil)
}
