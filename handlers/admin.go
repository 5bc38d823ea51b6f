package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"advocacy-backend/export"
	"advocacy-backend/live"
	"advocacy-backend/models"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// deleteAllConfirmation is the literal token an operator must supply
// before a bulk delete runs.
const deleteAllConfirmation = "DELETE ALL"

// ListSubmissions returns submissions for the admin console,
// newest-first, with optional search and paging.
func (h *Handlers) ListSubmissions(c *gin.Context) {
	kind := c.Param("kind")
	search := c.Query("search")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	submissions, total, err := h.submissions.List(c.Request.Context(), kind, search, limit, offset)
	if err != nil {
		h.adminError(c, err)
		return
	}
	if submissions == nil {
		submissions = []models.Submission{}
	}

	c.JSON(http.StatusOK, models.SubmissionListResponse{Submissions: submissions, Total: total})
}

// GetSubmission returns the detail view of one submission. Optional
// metadata fields come back as "N/A", matching the spreadsheet export.
func (h *Handlers) GetSubmission(c *gin.Context) {
	sub, err := h.submissions.Get(c.Request.Context(), c.Param("kind"), c.Param("id"))
	if err != nil {
		h.adminError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"submission": sub,
		"display": gin.H{
			"browser":           models.DisplayOrNA(sub.Metadata.Browser),
			"device_type":       models.DisplayOrNA(sub.Metadata.DeviceType),
			"screen_resolution": models.DisplayOrNA(sub.Metadata.ScreenResolution),
			"timezone":          models.DisplayOrNA(sub.Metadata.Timezone),
			"language":          models.DisplayOrNA(sub.Metadata.Language),
			"ip":                models.DisplayOrNA(sub.Metadata.IP),
			"city":              models.DisplayOrNA(sub.Metadata.City),
			"region":            models.DisplayOrNA(sub.Metadata.Region),
			"country":           models.DisplayOrNA(sub.Metadata.Country),
			"latitude":          models.DisplayOrNA(sub.Metadata.Latitude),
			"longitude":         models.DisplayOrNA(sub.Metadata.Longitude),
		},
	})
}

// DeleteSubmission removes one submission
func (h *Handlers) DeleteSubmission(c *gin.Context) {
	if err := h.submissions.Delete(c.Request.Context(), c.Param("kind"), c.Param("id")); err != nil {
		h.adminError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "submission deleted"})
}

// DeleteAllSubmissions removes every submission of a kind. The
// operator must send the literal confirmation string; there is exactly
// one query shape for "delete everything" and it is audited in the
// logs.
func (h *Handlers) DeleteAllSubmissions(c *gin.Context) {
	var req models.DeleteAllRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Confirm != deleteAllConfirmation {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "bulk delete requires confirmation string " + strconv.Quote(deleteAllConfirmation),
		})
		return
	}

	deleted, err := h.submissions.DeleteAll(c.Request.Context(), c.Param("kind"))
	if err != nil {
		h.adminError(c, err)
		return
	}

	log.Warnf("Admin %s deleted all %s submissions (%d rows)",
		c.GetString("admin_email"), c.Param("kind"), deleted)
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// ExportSubmissions streams the full row set as a CSV download
func (h *Handlers) ExportSubmissions(c *gin.Context) {
	kind := c.Param("kind")
	submissions, _, err := h.submissions.List(c.Request.Context(), kind, "", 0, 0)
	if err != nil {
		h.adminError(c, err)
		return
	}

	body := export.Build(export.SubmissionHeader, export.SubmissionRows(submissions))
	filename := export.Filename(kind+"-submissions", time.Now())

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(body))
}

// ListSignatures returns signatures of a petition for the admin
// console.
func (h *Handlers) ListSignatures(c *gin.Context) {
	search := c.Query("search")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	signatures, total, err := h.petitions.ListSignatures(c.Request.Context(), c.Param("id"), search, limit, offset)
	if err != nil {
		h.adminError(c, err)
		return
	}
	if signatures == nil {
		signatures = []models.Signature{}
	}

	c.JSON(http.StatusOK, models.SignatureListResponse{Signatures: signatures, Total: total})
}

// DeleteSignature removes one signature
func (h *Handlers) DeleteSignature(c *gin.Context) {
	if err := h.petitions.DeleteSignature(c.Request.Context(), c.Param("id"), c.Param("sid")); err != nil {
		h.adminError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "signature deleted"})
}

// DeleteAllSignatures removes every signature of a petition, gated by
// the same confirmation string as submissions.
func (h *Handlers) DeleteAllSignatures(c *gin.Context) {
	var req models.DeleteAllRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Confirm != deleteAllConfirmation {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "bulk delete requires confirmation string " + strconv.Quote(deleteAllConfirmation),
		})
		return
	}

	deleted, err := h.petitions.DeleteAllSignatures(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.adminError(c, err)
		return
	}

	log.Warnf("Admin %s deleted all signatures of petition %s (%d rows)",
		c.GetString("admin_email"), c.Param("id"), deleted)
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// ExportSignatures streams a petition's signatures as a CSV download
func (h *Handlers) ExportSignatures(c *gin.Context) {
	signatures, _, err := h.petitions.ListSignatures(c.Request.Context(), c.Param("id"), "", 0, 0)
	if err != nil {
		h.adminError(c, err)
		return
	}

	body := export.Build(export.SignatureHeader, export.SignatureRows(signatures))
	filename := export.Filename("petition-signatures", time.Now())

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(body))
}

// CreatePetition creates a petition from the admin console
func (h *Handlers) CreatePetition(c *gin.Context) {
	var req struct {
		Title string `json:"title" binding:"required,max=256"`
		Story string `json:"story" binding:"required"`
		Goal  int    `json:"goal" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	petition, err := h.petitions.CreatePetition(c.Request.Context(), req.Title, req.Story, req.Goal)
	if err != nil {
		h.adminError(c, err)
		return
	}
	c.JSON(http.StatusCreated, petition)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Admin consoles connect from the hosted frontend origin;
		// authentication happens via the JWT middleware before the
		// upgrade.
		return true
	},
}

// LiveFeed upgrades an admin connection to the live submission feed
func (h *Handlers) LiveFeed(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WithError(err).Warn("Failed to upgrade live feed connection")
		return
	}

	client := live.NewClient(h.hub, conn)
	go client.WritePump()
	go client.ReadPump()

	log.Infof("Live feed connected for admin %s", c.GetString("admin_email"))
}

// adminError maps service errors onto HTTP statuses
func (h *Handlers) adminError(c *gin.Context, err error) {
	msg := err.Error()
	switch {
	case msg == "submission not found" || msg == "signature not found" || msg == "petition not found":
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: msg})
	case strings.HasPrefix(msg, "unknown submission kind"):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: msg})
	default:
		log.WithError(err).Error("Admin request failed")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: msg})
	}
}
