package handler

import (
	"errors"
	"net/http"

	"modelctl/pkg/interfaces"
	"modelctl/pkg/logger"

	"github.com/gin-gonic/gin"
)

// StatusHandler serves the worker's own status record
type StatusHandler struct {
	reader interfaces.StatusReader
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(reader interfaces.StatusReader) *StatusHandler {
	return &StatusHandler{
		reader: reader,
	}
}

// GetStatus returns the latest status record
// @Summary Worker status record
// @Tags status
// @Produce json
// @Success 200 {object} model.StatusRecord
// @Failure 404 {object} map[string]string
// @Router /status [get]
func (h *StatusHandler) GetStatus(c *gin.Context) {
	snapshot, err := h.reader.Read(c.Request.Context())
	if errors.Is(err, interfaces.ErrStatusNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no status record yet"})
		return
	}
	if err != nil {
		logger.ErrorCtx(c.Request.Context(), "failed to read status record: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "status record unavailable"})
		return
	}

	c.JSON(http.StatusOK, snapshot.Record)
}

// Healthz liveness of the HTTP server itself, not of the worker
func (h *StatusHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
