package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/printbridge/agent/internal/agent"
	"github.com/printbridge/agent/internal/db"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// PrintService is the slice of the agent the HTTP layer needs.
type PrintService interface {
	Printers(ctx context.Context) ([]string, error)
	PrintPDF(ctx context.Context, encoded, printerName, label string) (*agent.PrintResult, error)
	Jobs(ctx context.Context, status string, limit, offset int) ([]*db.PrintJob, error)
}

type PrinterHandler struct {
	svc PrintService
}

func NewPrinterHandler(svc PrintService) *PrinterHandler {
	return &PrinterHandler{svc: svc}
}

type PrintersResponse struct {
	Printers []string `json:"printers"`
}

func (h *PrinterHandler) ListPrinters(c *gin.Context) {
	printers, err := h.svc.Printers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "enumeration_error",
			Message: err.Error(),
		})
		return
	}

	if printers == nil {
		printers = []string{}
	}
	c.JSON(http.StatusOK, PrintersResponse{Printers: printers})
}
