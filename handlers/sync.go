package handlers

import (
	"net/http"
	"runtime/debug"

	"advocacy-backend/models"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

// SyncSubmissions runs one submission-to-spreadsheet sync pass.
// Success and "nothing to do" are both 200 with a summary; any step
// failing is a 500 carrying the error text and a stack capture, which
// the spreadsheet operators use for diagnostics.
func (h *Handlers) SyncSubmissions(c *gin.Context) {
	result, err := h.sync.Run(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("Submission sync failed")
		c.JSON(http.StatusInternalServerError, models.SyncErrorResponse{
			Error:   "Failed to sync submissions",
			Details: err.Error(),
			Stack:   string(debug.Stack()),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}
