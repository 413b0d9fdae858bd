package v1

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/shenikar/crisis_command_system/internal/audit"
	"github.com/shenikar/crisis_command_system/internal/config"
	"github.com/shenikar/crisis_command_system/internal/handler/http/v1/mocks"
	"github.com/shenikar/crisis_command_system/internal/models"
	"github.com/shenikar/crisis_command_system/internal/orchestrator"
	"github.com/shenikar/crisis_command_system/internal/report"
)

const testAPIKey = "test-key"

type handlerHarness struct {
	router         *gin.Engine
	crisisService  *mocks.MockCrisisService
	monitorService *mocks.MockMonitorService
	auditLog       *audit.Log
}

func newHandlerHarness(t *testing.T) *handlerHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctrl := gomock.NewController(t)
	crisisService := mocks.NewMockCrisisService(ctrl)
	monitorService := mocks.NewMockMonitorService(ctrl)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	renderer, err := report.NewTextRenderer()
	require.NoError(t, err)

	auditLog := audit.NewLog()
	cfg := &config.Config{
		APIKeys:      []string{testAPIKey},
		ApproveDigit: "6",
		PublicURL:    "https://cc.example.org",
	}

	h := NewHandler(crisisService, monitorService, auditLog, renderer, logger, cfg)

	router := gin.New()
	h.RegisterRoutes(router.Group("/api/v1"))

	return &handlerHarness{
		router:         router,
		crisisService:  crisisService,
		monitorService: monitorService,
		auditLog:       auditLog,
	}
}

func (h *handlerHarness) doJSON(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", testAPIKey)

	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func TestSubmitCrisis_Created(t *testing.T) {
	h := newHandlerHarness(t)
	crisisID := uuid.New()

	h.crisisService.EXPECT().
		Submit(gomock.Any(), orchestrator.SubmitRequest{
			Description: "Massive fire at the chemical plant",
			Location:    "Chennai",
			Source:      "manual",
		}).
		Return(&orchestrator.SubmitResult{
			CrisisID:  crisisID,
			Status:    models.StatusWaitingApproval,
			RiskScore: 4.5,
			Category:  "Fire",
		}, nil)

	w := h.doJSON(t, http.MethodPost, "/api/v1/crises", SubmitCrisisRequest{
		Description: "Massive fire at the chemical plant",
		Location:    "Chennai",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	var resp SubmitCrisisResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, crisisID, resp.CrisisID)
	assert.Equal(t, models.StatusWaitingApproval, resp.Status)
	assert.InDelta(t, 4.5, resp.RiskScore, 0.001)
}

func TestSubmitCrisis_ValidationError(t *testing.T) {
	h := newHandlerHarness(t)
	// Описание короче минимума: до сервиса запрос не доходит

	w := h.doJSON(t, http.MethodPost, "/api/v1/crises", SubmitCrisisRequest{
		Description: "ab",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitCrisis_Unauthorized(t *testing.T) {
	h := newHandlerHarness(t)

	body, err := json.Marshal(SubmitCrisisRequest{Description: "Massive fire downtown"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/crises", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSubmitCrisis_BearerTokenAccepted(t *testing.T) {
	h := newHandlerHarness(t)
	h.crisisService.EXPECT().
		Submit(gomock.Any(), gomock.Any()).
		Return(&orchestrator.SubmitResult{CrisisID: uuid.New(), Status: models.StatusExecuted}, nil)

	body, err := json.Marshal(SubmitCrisisRequest{Description: "Minor street flooding"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/crises", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+testAPIKey)

	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestGetStatus_OK(t *testing.T) {
	h := newHandlerHarness(t)
	crisisID := uuid.New()

	h.crisisService.EXPECT().
		GetStatus(crisisID).
		Return(&models.CrisisStatus{
			CrisisID:    crisisID,
			State:       models.StateAwaitingApproval,
			RiskScore:   4.5,
			Category:    "Fire",
			PlanSummary: []string{"Fire-1"},
		}, nil)

	w := h.doJSON(t, http.MethodGet, "/api/v1/crises/"+crisisID.String()+"/status", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp CrisisStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(models.StateAwaitingApproval), resp.State)
	assert.Equal(t, []string{"Fire-1"}, resp.PlanSummary)
}

func TestGetStatus_NotFound(t *testing.T) {
	h := newHandlerHarness(t)
	crisisID := uuid.New()

	h.crisisService.EXPECT().
		GetStatus(crisisID).
		Return(nil, models.ErrUnknownCrisis)

	w := h.doJSON(t, http.MethodGet, "/api/v1/crises/"+crisisID.String()+"/status", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetStatus_InvalidID(t *testing.T) {
	h := newHandlerHarness(t)

	w := h.doJSON(t, http.MethodGet, "/api/v1/crises/not-a-uuid/status", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetReport_TextFormat(t *testing.T) {
	h := newHandlerHarness(t)
	crisisID := uuid.New()

	h.crisisService.EXPECT().
		Report(gomock.Any(), crisisID).
		Return(&models.CrisisReportView{
			CrisisID:       crisisID,
			Description:    "Massive fire at the chemical plant",
			Location:       "Chennai",
			Category:       "Fire",
			RiskScore:      4.5,
			ApprovalStatus: models.StateExecuted,
			NotifiedUnits:  []string{"Fire-1"},
		}, nil)

	w := h.doJSON(t, http.MethodGet, "/api/v1/crises/"+crisisID.String()+"/report?format=text", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, w.Body.String(), "CRISIS INCIDENT REPORT")
	assert.Contains(t, w.Body.String(), "Fire-1")
}

func TestListReports_OK(t *testing.T) {
	h := newHandlerHarness(t)

	h.crisisService.EXPECT().
		ListReports(gomock.Any()).
		Return([]*models.CrisisReportView{
			{
				CrisisID:       uuid.New(),
				Description:    "Minor street flooding",
				Location:       "Chennai",
				Category:       "Flood",
				RiskScore:      1.3,
				ApprovalStatus: models.StateExecuted,
				NotifiedUnits:  []string{"Flood-1"},
			},
		})

	w := h.doJSON(t, http.MethodGet, "/api/v1/reports", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp []CrisisReportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, []string{"Flood-1"}, resp[0].NotifiedUnits)
}

func TestGetAudit_FilterByEventType(t *testing.T) {
	h := newHandlerHarness(t)
	crisisID := uuid.New()
	h.auditLog.Append(audit.EventCrisisReceived, &crisisID, nil)
	h.auditLog.Append(audit.EventCallTriggered, &crisisID, nil)

	w := h.doJSON(t, http.MethodGet, "/api/v1/audit?event_type="+audit.EventCallTriggered, nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp []AuditEventResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, audit.EventCallTriggered, resp[0].EventType)
}

func TestVoiceHandleKey_ApprovalDigit(t *testing.T) {
	h := newHandlerHarness(t)
	crisisID := uuid.New()

	h.crisisService.EXPECT().
		ResolveApproval(gomock.Any(), crisisID, "6").
		Return(&orchestrator.ApprovalOutcome{
			Accepted: true,
			Status:   string(models.StateExecuted),
			Message:  "Dispatch approved. Units are on the way.",
		}, nil)

	form := url.Values{"Digits": {"6"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/voice/handle-key?crisis_id="+crisisID.String(),
		strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/xml")
	assert.Contains(t, w.Body.String(), "Dispatch approved")
}

func TestVoiceHandleKey_InvalidCrisisID(t *testing.T) {
	h := newHandlerHarness(t)
	// Вебхук без валидного crisis_id отвечает голосовой фразой, не ошибкой HTTP

	req := httptest.NewRequest(http.MethodPost, "/api/v1/voice/handle-key", strings.NewReader("Digits=6"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "invalid")
}

func TestVoicePrompt_BuildsGather(t *testing.T) {
	h := newHandlerHarness(t)
	crisisID := uuid.New()

	h.crisisService.EXPECT().
		GetStatus(crisisID).
		Return(&models.CrisisStatus{
			CrisisID:  crisisID,
			State:     models.StateAwaitingApproval,
			RiskScore: 4.5,
			Category:  "Fire",
		}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/voice?crisis_id="+crisisID.String(), nil)
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<Gather")
	assert.Contains(t, body, "Press 6 to approve dispatch")
	assert.Contains(t, body, crisisID.String())
}

func TestScanLocation_OK(t *testing.T) {
	h := newHandlerHarness(t)

	h.monitorService.EXPECT().
		Scan(gomock.Any(), "Chennai").
		Return(&models.LocationMonitorState{
			Location:      "Chennai",
			LastStatus:    models.MonitorStatusMonitoring,
			LastNewsCount: 2,
			LastReason:    "Weather within safe range",
		}, nil)

	w := h.doJSON(t, http.MethodPost, "/api/v1/monitor/scan", ScanRequest{Location: "Chennai"})

	require.Equal(t, http.StatusOK, w.Code)
	var resp ScanResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.MonitorStatusMonitoring, resp.Status)
	assert.Equal(t, 2, resp.NewsCount)
}

func TestScanLocation_SourceUnavailable(t *testing.T) {
	h := newHandlerHarness(t)

	h.monitorService.EXPECT().
		Scan(gomock.Any(), "Chennai").
		Return(nil, assert.AnError)

	w := h.doJSON(t, http.MethodPost, "/api/v1/monitor/scan", ScanRequest{Location: "Chennai"})

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestHealthCheck(t *testing.T) {
	h := newHandlerHarness(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/system/health", nil)
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
