package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/shenikar/crisis_command_system/internal/audit"
	"github.com/shenikar/crisis_command_system/internal/config"
	"github.com/shenikar/crisis_command_system/internal/models"
	"github.com/shenikar/crisis_command_system/internal/orchestrator"
	"github.com/shenikar/crisis_command_system/internal/report"
	"github.com/shenikar/crisis_command_system/internal/voice"
)

//go:generate mockgen -source=handler.go -destination=mocks/mock_handler.go -package=mocks

// CrisisService определяет контракт ядра подтверждения и отправки
type CrisisService interface {
	Submit(ctx context.Context, req orchestrator.SubmitRequest) (*orchestrator.SubmitResult, error)
	ResolveApproval(ctx context.Context, crisisID uuid.UUID, digit string) (*orchestrator.ApprovalOutcome, error)
	GetStatus(crisisID uuid.UUID) (*models.CrisisStatus, error)
	Report(ctx context.Context, crisisID uuid.UUID) (*models.CrisisReportView, error)
	ListReports(ctx context.Context) []*models.CrisisReportView
}

// MonitorService определяет контракт автономного монитора
type MonitorService interface {
	Scan(ctx context.Context, location string) (*models.LocationMonitorState, error)
}

type Handler struct {
	crisisService  CrisisService
	monitorService MonitorService
	auditLog       *audit.Log
	renderer       report.Renderer
	logger         *logrus.Logger
	validate       *validator.Validate
	cfg            *config.Config
}

func NewHandler(
	crisisService CrisisService,
	monitorService MonitorService,
	auditLog *audit.Log,
	renderer report.Renderer,
	logger *logrus.Logger,
	cfg *config.Config,
) *Handler {
	return &Handler{
		crisisService:  crisisService,
		monitorService: monitorService,
		auditLog:       auditLog,
		renderer:       renderer,
		logger:         logger,
		validate:       validator.New(),
		cfg:            cfg,
	}
}

// @Summary Submit a crisis report
// @Description Submit a crisis report. Low-risk or pre-authorized reports are dispatched immediately; high-risk reports trigger a voice approval call. Requires API key.
// @Tags Crises
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param crisis body SubmitCrisisRequest true "Crisis submission request"
// @Success 201 {object} SubmitCrisisResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /crises [post]
func (h *Handler) submitCrisis(c *gin.Context) {
	var input SubmitCrisisRequest
	log := h.logger.WithField("method", "submitCrisis")

	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.crisisService.Submit(c.Request.Context(), orchestrator.SubmitRequest{
		Description:   input.Description,
		Location:      input.Location,
		PreAuthorized: input.PreAuthorized,
		Source:        "manual",
	})
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.WithError(err).Error("Failed to submit crisis in orchestrator")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusCreated, SubmitResultToResponse(result))
}

// @Summary Get crisis status
// @Description Get the current approval state of a crisis by its ID. Requires API key.
// @Tags Crises
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Crisis ID"
// @Success 200 {object} CrisisStatusResponse
// @Failure 400 {object} map[string]string "Invalid crisis ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Crisis not found"
// @Router /crises/{id}/status [get]
func (h *Handler) getStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid crisis ID"})
		return
	}
	log := h.logger.WithField("method", "getStatus").WithField("id", id)

	status, err := h.crisisService.GetStatus(id)
	if err != nil {
		log.WithError(err).Warn("Failed to get crisis status")
		c.JSON(http.StatusNotFound, gin.H{"error": "crisis not found"})
		return
	}
	c.JSON(http.StatusOK, StatusToResponse(status))
}

// @Summary Get crisis report
// @Description Get the full incident report of a crisis. Use format=text for a printable rendering. Requires API key.
// @Tags Crises
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Crisis ID"
// @Param format query string false "Response format" Enums(json, text)
// @Success 200 {object} CrisisReportResponse
// @Failure 400 {object} map[string]string "Invalid crisis ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Crisis not found"
// @Router /crises/{id}/report [get]
func (h *Handler) getReport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid crisis ID"})
		return
	}
	log := h.logger.WithField("method", "getReport").WithField("id", id)

	view, err := h.crisisService.Report(c.Request.Context(), id)
	if err != nil {
		log.WithError(err).Warn("Failed to get crisis report")
		c.JSON(http.StatusNotFound, gin.H{"error": "crisis not found"})
		return
	}

	if c.DefaultQuery("format", "json") == "text" {
		rendered, err := h.renderer.Render(view)
		if err != nil {
			log.WithError(err).Error("Failed to render crisis report")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		c.Data(http.StatusOK, "text/plain; charset=utf-8", rendered)
		return
	}
	c.JSON(http.StatusOK, ReportViewToResponse(view))
}

// @Summary List crisis reports
// @Description List report summaries for all crises, ordered by submission time. Requires API key.
// @Tags Crises
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} CrisisReportResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /reports [get]
func (h *Handler) listReports(c *gin.Context) {
	views := h.crisisService.ListReports(c.Request.Context())
	c.JSON(http.StatusOK, ReportViewsToResponses(views))
}

// @Summary Get audit feed
// @Description Get the ordered audit event sequence, optionally filtered by crisis_id or event_type. Requires API key.
// @Tags Audit
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param crisis_id query string false "Filter by crisis ID"
// @Param event_type query string false "Filter by event type"
// @Success 200 {array} AuditEventResponse
// @Failure 400 {object} map[string]string "Invalid crisis ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /audit [get]
func (h *Handler) getAudit(c *gin.Context) {
	var filter audit.Filter
	if raw := c.Query("crisis_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid crisis ID"})
			return
		}
		filter.CrisisID = &id
	}
	filter.EventType = c.Query("event_type")

	events := h.auditLog.Read(&filter)
	c.JSON(http.StatusOK, AuditEventsToResponses(events))
}

// voicePrompt отвечает TwiML-сценарием входящему запросу Twilio.
// crisis_id приходит в параметрах callback-ссылки, заданной при звонке.
func (h *Handler) voicePrompt(c *gin.Context) {
	log := h.logger.WithField("method", "voicePrompt")

	crisisID, err := uuid.Parse(c.Query("crisis_id"))
	if err != nil {
		log.Warn("Voice prompt requested without a valid crisis_id")
		h.respondTwiML(c, "This approval request is invalid. Goodbye.")
		return
	}

	prompt := "A high risk crisis requires your approval."
	if status, err := h.crisisService.GetStatus(crisisID); err == nil {
		prompt = fmt.Sprintf(
			"A %s crisis with risk score %.1f requires your approval. Press %s to approve dispatch, or any other key to reject.",
			status.Category, status.RiskScore, h.cfg.ApproveDigit,
		)
	}

	actionURL := fmt.Sprintf("%s/api/v1/voice/handle-key?crisis_id=%s", h.cfg.PublicURL, crisisID)
	twiml, err := voice.ApprovalPrompt(prompt, actionURL)
	if err != nil {
		log.WithError(err).Error("Failed to build approval prompt")
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusOK, "text/xml; charset=utf-8", twiml)
}

// voiceHandleKey принимает нажатую клавишу из вебхука Twilio
// и передаёт её оркестратору
func (h *Handler) voiceHandleKey(c *gin.Context) {
	log := h.logger.WithField("method", "voiceHandleKey")

	crisisID, err := uuid.Parse(c.Query("crisis_id"))
	if err != nil {
		log.Warn("Keypad webhook without a valid crisis_id")
		h.respondTwiML(c, "This approval request is invalid. Goodbye.")
		return
	}

	digit := c.PostForm("Digits")
	log = log.WithField("crisis_id", crisisID).WithField("digit", digit)

	outcome, err := h.crisisService.ResolveApproval(c.Request.Context(), crisisID, digit)
	if err != nil {
		log.WithError(err).Error("Failed to resolve approval")
		h.respondTwiML(c, "An internal error occurred. The dispatch was not executed.")
		return
	}

	log.WithField("status", outcome.Status).Info("Approval webhook processed")
	h.respondTwiML(c, outcome.Message)
}

// @Summary Run a monitor scan
// @Description Run one autonomous monitoring cycle for a location and return its derived status. Requires API key.
// @Tags Monitor
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param scan body ScanRequest true "Scan request"
// @Success 200 {object} ScanResponse
// @Failure 400 {object} map[string]string "Invalid request body or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 502 {object} map[string]string "External signal source unavailable"
// @Router /monitor/scan [post]
func (h *Handler) scanLocation(c *gin.Context) {
	var input ScanRequest
	log := h.logger.WithField("method", "scanLocation")

	if err := c.ShouldBindJSON(&input); err != nil {
		log.WithError(err).Warn("Failed to bind JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.validate.Struct(input); err != nil {
		log.WithError(err).Warn("Validation failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	state, err := h.monitorService.Scan(c.Request.Context(), input.Location)
	if err != nil {
		log.WithError(err).Warn("Monitor scan failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "external signal source unavailable"})
		return
	}
	c.JSON(http.StatusOK, MonitorStateToResponse(state))
}

// @Summary Get application health status
// @Description Get health status of the application
// @Tags System
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string "Status OK"
// @Router /system/health [get]
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// respondTwiML отвечает голосовой фразой в формате TwiML
func (h *Handler) respondTwiML(c *gin.Context, message string) {
	twiml, err := voice.SayResponse(message)
	if err != nil {
		h.logger.WithError(err).Error("Failed to build TwiML response")
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusOK, "text/xml; charset=utf-8", twiml)
}
