package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/printbridge/agent/internal/agent"
	"github.com/printbridge/agent/internal/pdfdoc"
	"github.com/printbridge/agent/internal/printer"
	"github.com/printbridge/agent/internal/raster"
)

type JobHandler struct {
	svc PrintService
}

func NewJobHandler(svc PrintService) *JobHandler {
	return &JobHandler{svc: svc}
}

type PrintRequest struct {
	PDFBase64   string `json:"pdf_base64" binding:"required"`
	PrinterName string `json:"printer_name" binding:"required"`
	JobName     string `json:"job_name"`
}

func (h *JobHandler) Print(c *gin.Context) {
	var req PrintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	label := req.JobName
	if label == "" {
		label = "document"
	}

	result, err := h.svc.PrintPDF(c.Request.Context(), req.PDFBase64, req.PrinterName, label)
	if err != nil {
		status, code := classifyPrintError(err)
		c.JSON(status, ErrorResponse{Error: code, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func classifyPrintError(err error) (int, string) {
	switch {
	case errors.Is(err, agent.ErrDecode):
		return http.StatusBadRequest, "decode_error"
	case errors.Is(err, pdfdoc.ErrLoad):
		return http.StatusBadRequest, "load_error"
	case errors.Is(err, printer.ErrNoBackend):
		return http.StatusServiceUnavailable, "no_backend_available"
	case errors.Is(err, raster.ErrRender):
		return http.StatusBadGateway, "render_error"
	case errors.Is(err, printer.ErrDevice):
		return http.StatusBadGateway, "device_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func (h *JobHandler) ListJobs(c *gin.Context) {
	status := c.Query("status")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	jobs, err := h.svc.Jobs(c.Request.Context(), status, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to retrieve job history",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}
