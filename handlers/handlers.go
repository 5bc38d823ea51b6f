package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"advocacy-backend/config"
	"advocacy-backend/database"
	"advocacy-backend/events"
	"advocacy-backend/geo"
	"advocacy-backend/live"
	"advocacy-backend/metrics"
	"advocacy-backend/models"
	"advocacy-backend/syncer"
	"advocacy-backend/useragent"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

// formNames maps submission kinds to the names used in emails
var formNames = map[string]string{
	"before_you_sign":     "Before You Sign",
	"where_scams_thrive":  "Where Scams Thrive",
	"timeshare_checklist": "Timeshare Checklist",
	"scam_report":         "Scam Report",
}

// Superficial format check only; the authoritative validation is the
// confirmation email actually arriving.
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Handlers handles HTTP requests for the advocacy backend
type Handlers struct {
	cfg         *config.Config
	submissions *database.SubmissionService
	petitions   *database.PetitionService
	outbox      *database.OutboxService
	sync        *syncer.Service
	geo         *geo.Client
	publisher   *events.Publisher
	hub         *live.Hub
}

// NewHandlers creates a new handlers instance. publisher may be nil
// when AMQP is not configured.
func NewHandlers(
	cfg *config.Config,
	submissions *database.SubmissionService,
	petitions *database.PetitionService,
	outbox *database.OutboxService,
	sync *syncer.Service,
	geoClient *geo.Client,
	publisher *events.Publisher,
	hub *live.Hub,
) *Handlers {
	return &Handlers{
		cfg:         cfg,
		submissions: submissions,
		petitions:   petitions,
		outbox:      outbox,
		sync:        sync,
		geo:         geoClient,
		publisher:   publisher,
		hub:         hub,
	}
}

// HealthCheck returns service health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "advocacy-backend",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// SiteConfig returns the public configuration the forms need
func (h *Handlers) SiteConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"recaptcha_site_key": h.cfg.RecaptchaSiteKey,
	})
}

// CreateSubmission handles a public form submit. The submission is
// durable once the insert succeeds; notifications, event publishing
// and the sync trigger are all best-effort afterthoughts.
func (h *Handlers) CreateSubmission(c *gin.Context) {
	kind := c.Param("kind")
	if _, err := database.TableForKind(kind); err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
		return
	}

	var req models.CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	if !emailRe.MatchString(req.Email) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid email address"})
		return
	}

	h.enrichMetadata(c, &req.Metadata)

	sub, err := h.submissions.Create(c.Request.Context(), kind, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to save submission"})
		return
	}

	metrics.SubmissionsCreated.WithLabelValues(kind).Inc()
	h.enqueueNotifications(c.Request.Context(), kind, sub.ID, req.FullName, req.Email, req.NewsletterOptIn)
	h.publishEvent(events.RoutingSubmissionCreated, events.SubmissionEvent{
		Kind:      kind,
		ID:        sub.ID,
		Email:     sub.Email,
		CreatedAt: sub.CreatedAt,
	})
	if h.hub != nil {
		h.hub.Broadcast("submission", sub)
	}
	h.triggerSync()

	c.JSON(http.StatusCreated, gin.H{"id": sub.ID})
}

// ListPetitions returns all petitions with live signature counts
func (h *Handlers) ListPetitions(c *gin.Context) {
	petitions, err := h.petitions.ListPetitions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to list petitions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"petitions": petitions})
}

// GetPetition returns one petition with its live signature count
func (h *Handlers) GetPetition(c *gin.Context) {
	petition, err := h.petitions.GetPetition(c.Request.Context(), c.Param("id"))
	if err != nil {
		if err.Error() == "petition not found" {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to get petition"})
		return
	}
	c.JSON(http.StatusOK, petition)
}

// SignPetition records a signature
func (h *Handlers) SignPetition(c *gin.Context) {
	petitionID := c.Param("id")
	if _, err := h.petitions.GetPetition(c.Request.Context(), petitionID); err != nil {
		if err.Error() == "petition not found" {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to get petition"})
		return
	}

	var req models.CreateSignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}
	if !emailRe.MatchString(req.Email) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid email address"})
		return
	}

	h.enrichMetadata(c, &req.Metadata)

	sig, err := h.petitions.AddSignature(c.Request.Context(), petitionID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to save signature"})
		return
	}

	metrics.SignaturesCreated.Inc()
	h.enqueueNotifications(c.Request.Context(), "petition", sig.ID, req.FullName, req.Email, req.NewsletterOptIn)
	h.publishEvent(events.RoutingSignatureCreated, events.SubmissionEvent{
		Kind:       "signature",
		ID:         sig.ID,
		PetitionID: petitionID,
		Email:      sig.Email,
		CreatedAt:  sig.CreatedAt,
	})
	if h.hub != nil {
		h.hub.Broadcast("signature", sig)
	}

	c.JSON(http.StatusCreated, gin.H{"id": sig.ID})
}

// enrichMetadata fills fields the client did not supply from the
// request itself plus a best-effort geolocation lookup.
func (h *Handlers) enrichMetadata(c *gin.Context, md *models.Metadata) {
	ua := c.GetHeader("User-Agent")
	if md.Browser == "" {
		md.Browser = useragent.Browser(ua)
	}
	if md.DeviceType == "" {
		md.DeviceType = useragent.DeviceType(ua)
	}
	if md.Language == "" {
		if lang := c.GetHeader("Accept-Language"); lang != "" {
			md.Language = strings.TrimSpace(strings.SplitN(lang, ",", 2)[0])
		}
	}
	if md.IP == "" {
		md.IP = c.ClientIP()
	}
	if md.City == "" && h.geo != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		h.geo.Enrich(ctx, md, md.IP)
	}
}

// enqueueNotifications writes outbox rows for the dispatcher. Enqueue
// failures are logged and swallowed: the submission is already
// durable and that is the success the user is told about.
func (h *Handlers) enqueueNotifications(ctx context.Context, kind, id, fullName, recipient string, newsletterOptIn bool) {
	formName := formNames[kind]
	if formName == "" {
		formName = "Petition"
	}

	confirmation, _ := json.Marshal(map[string]string{
		"full_name": fullName,
		"form_name": formName,
	})
	if err := h.outbox.Enqueue(ctx, models.OutboxConfirmation, recipient, string(confirmation)); err != nil {
		log.WithError(err).Warn("Failed to enqueue confirmation email")
	}

	alert, _ := json.Marshal(map[string]string{
		"summary": fmt.Sprintf("New %s entry %s from %s <%s>", formName, id, fullName, recipient),
	})
	if err := h.outbox.Enqueue(ctx, models.OutboxAdminAlert, h.cfg.AdminNotifyEmail, string(alert)); err != nil {
		log.WithError(err).Warn("Failed to enqueue admin alert")
	}

	if newsletterOptIn {
		signup, _ := json.Marshal(map[string]string{"full_name": fullName})
		if err := h.outbox.Enqueue(ctx, models.OutboxNewsletterSignup, recipient, string(signup)); err != nil {
			log.WithError(err).Warn("Failed to enqueue newsletter signup")
		}
	}
}

func (h *Handlers) publishEvent(routingKey string, event events.SubmissionEvent) {
	if h.publisher == nil {
		return
	}
	if err := h.publisher.Publish(routingKey, event); err != nil {
		log.WithError(err).Warnf("Failed to publish %s event", routingKey)
	}
}

// triggerSync kicks a spreadsheet sync in the background after a new
// submission, fire-and-forget.
func (h *Handlers) triggerSync() {
	if h.sync == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		if _, err := h.sync.Run(ctx); err != nil {
			log.WithError(err).Warn("Background sync after submission failed")
		}
	}()
}
