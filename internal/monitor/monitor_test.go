package monitor

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/shenikar/crisis_command_system/internal/audit"
	"github.com/shenikar/crisis_command_system/internal/config"
	"github.com/shenikar/crisis_command_system/internal/models"
	"github.com/shenikar/crisis_command_system/internal/monitor/mocks"
	"github.com/shenikar/crisis_command_system/internal/orchestrator"
)

type monitorHarness struct {
	monitor   *Monitor
	weather   *mocks.MockWeatherSource
	news      *mocks.MockNewsSource
	submitter *mocks.MockSubmitter
	auditLog  *audit.Log
}

func newMonitorHarness(t *testing.T) *monitorHarness {
	t.Helper()

	ctrl := gomock.NewController(t)
	weather := mocks.NewMockWeatherSource(ctrl)
	news := mocks.NewMockNewsSource(ctrl)
	submitter := mocks.NewMockSubmitter(ctrl)

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	auditLog := audit.NewLog()
	cfg := &config.Config{
		MonitorLocations: []string{"Chennai"},
		MonitorInterval:  time.Minute,
	}

	m := New(weather, news, submitter, auditLog, cfg, logger)
	return &monitorHarness{monitor: m, weather: weather, news: news, submitter: submitter, auditLog: auditLog}
}

func floodHeadlines(location string, n int) []models.NewsItem {
	items := make([]models.NewsItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, models.NewsItem{
			Title:       fmt.Sprintf("Flooding reported in %s, district %d", location, i+1),
			PublishedAt: time.Now().UTC().Add(-time.Hour),
		})
	}
	return items
}

func safeWeather() *models.Weather {
	return &models.Weather{Temperature: 29.0, Humidity: 60, Rain1h: 0.2, Description: "scattered clouds"}
}

func TestScan_StrongNewsSignalSubmitsCrisis(t *testing.T) {
	h := newMonitorHarness(t)
	crisisID := uuid.New()

	h.news.EXPECT().
		Search(gomock.Any(), "Chennai", gomock.Any()).
		Return(floodHeadlines("Chennai", 5), nil)
	h.weather.EXPECT().
		GetCurrent(gomock.Any(), "Chennai").
		Return(safeWeather(), nil)
	h.submitter.EXPECT().
		Submit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req orchestrator.SubmitRequest) (*orchestrator.SubmitResult, error) {
			assert.Equal(t, "Chennai", req.Location)
			assert.Equal(t, "monitor", req.Source)
			assert.Contains(t, req.Description, "Multiple confirmed flood reports")
			return &orchestrator.SubmitResult{CrisisID: crisisID, Status: models.StatusWaitingApproval}, nil
		})

	state, err := h.monitor.Scan(context.Background(), "Chennai")

	require.NoError(t, err)
	assert.Equal(t, models.MonitorStatusFloodDetected, state.LastStatus)
	require.NotNil(t, state.PendingCrisisID)
	assert.Equal(t, crisisID.String(), *state.PendingCrisisID)
	assert.Equal(t, 5, state.LastNewsCount)
	assert.Len(t, h.auditLog.Read(&audit.Filter{EventType: audit.EventMonitorAlert}), 1)
}

func TestScan_RainfallAnomalySubmitsCrisis(t *testing.T) {
	h := newMonitorHarness(t)

	h.news.EXPECT().
		Search(gomock.Any(), "Chennai", gomock.Any()).
		Return(nil, nil)
	h.weather.EXPECT().
		GetCurrent(gomock.Any(), "Chennai").
		Return(&models.Weather{Temperature: 26.5, Humidity: 92, Rain1h: 7.4, Description: "heavy intensity rain"}, nil)
	h.submitter.EXPECT().
		Submit(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req orchestrator.SubmitRequest) (*orchestrator.SubmitResult, error) {
			assert.Contains(t, req.Description, "Rainfall anomaly detected")
			return &orchestrator.SubmitResult{CrisisID: uuid.New(), Status: models.StatusWaitingApproval}, nil
		})

	state, err := h.monitor.Scan(context.Background(), "Chennai")

	require.NoError(t, err)
	assert.Equal(t, models.MonitorStatusFloodDetected, state.LastStatus)
}

func TestScan_SafeWhenNoSignals(t *testing.T) {
	h := newMonitorHarness(t)

	h.news.EXPECT().
		Search(gomock.Any(), "Chennai", gomock.Any()).
		Return(nil, nil)
	h.weather.EXPECT().
		GetCurrent(gomock.Any(), "Chennai").
		Return(safeWeather(), nil)
	// Никаких ожиданий на submitter: подачи быть не должно

	state, err := h.monitor.Scan(context.Background(), "Chennai")

	require.NoError(t, err)
	assert.Equal(t, models.MonitorStatusSafe, state.LastStatus)
	assert.Empty(t, h.auditLog.Read(nil))
}

func TestScan_SubThresholdNewsMeansMonitoring(t *testing.T) {
	h := newMonitorHarness(t)

	h.news.EXPECT().
		Search(gomock.Any(), "Chennai", gomock.Any()).
		Return(floodHeadlines("Chennai", 2), nil)
	h.weather.EXPECT().
		GetCurrent(gomock.Any(), "Chennai").
		Return(safeWeather(), nil)

	state, err := h.monitor.Scan(context.Background(), "Chennai")

	require.NoError(t, err)
	assert.Equal(t, models.MonitorStatusMonitoring, state.LastStatus)
	assert.Equal(t, 2, state.LastNewsCount)
}

func TestScan_LiveDecisionDeduplicatesSignal(t *testing.T) {
	h := newMonitorHarness(t)
	pendingID := uuid.New()

	h.news.EXPECT().
		Search(gomock.Any(), "Chennai", gomock.Any()).
		Return(floodHeadlines("Chennai", 6), nil)
	h.weather.EXPECT().
		GetCurrent(gomock.Any(), "Chennai").
		Return(safeWeather(), nil)
	h.submitter.EXPECT().
		Submit(gomock.Any(), gomock.Any()).
		Return(&orchestrator.SubmitResult{
			CrisisID:        uuid.New(),
			Status:          models.StatusAlreadyPending,
			PendingCrisisID: &pendingID,
		}, nil)

	state, err := h.monitor.Scan(context.Background(), "Chennai")

	require.NoError(t, err)
	assert.Equal(t, models.MonitorStatusAlreadyPending, state.LastStatus)
	require.NotNil(t, state.PendingCrisisID)
	assert.Equal(t, pendingID.String(), *state.PendingCrisisID)
	// Дублирующий сигнал не порождает событие тревоги
	assert.Empty(t, h.auditLog.Read(&audit.Filter{EventType: audit.EventMonitorAlert}))
}

func TestScan_SubThresholdPollDoesNotRegressLiveDecision(t *testing.T) {
	h := newMonitorHarness(t)
	crisisID := uuid.New()

	// Первый цикл: порог пройден, решение создано
	h.news.EXPECT().
		Search(gomock.Any(), "Chennai", gomock.Any()).
		Return(floodHeadlines("Chennai", 5), nil)
	h.weather.EXPECT().
		GetCurrent(gomock.Any(), "Chennai").
		Return(safeWeather(), nil)
	h.submitter.EXPECT().
		Submit(gomock.Any(), gomock.Any()).
		Return(&orchestrator.SubmitResult{CrisisID: crisisID, Status: models.StatusWaitingApproval}, nil)

	_, err := h.monitor.Scan(context.Background(), "Chennai")
	require.NoError(t, err)

	// Второй цикл: сигнал ниже порога, но решение ещё живо
	h.news.EXPECT().
		Search(gomock.Any(), "Chennai", gomock.Any()).
		Return(floodHeadlines("Chennai", 1), nil)
	h.weather.EXPECT().
		GetCurrent(gomock.Any(), "Chennai").
		Return(safeWeather(), nil)
	h.submitter.EXPECT().
		PendingForLocation("Chennai").
		Return(crisisID, true)

	state, err := h.monitor.Scan(context.Background(), "Chennai")

	require.NoError(t, err)
	assert.Equal(t, models.MonitorStatusFloodDetected, state.LastStatus)

	// Третий цикл: решение разрешено, статус возвращается к обычной логике
	h.news.EXPECT().
		Search(gomock.Any(), "Chennai", gomock.Any()).
		Return(nil, nil)
	h.weather.EXPECT().
		GetCurrent(gomock.Any(), "Chennai").
		Return(safeWeather(), nil)
	h.submitter.EXPECT().
		PendingForLocation("Chennai").
		Return(uuid.Nil, false)

	state, err = h.monitor.Scan(context.Background(), "Chennai")

	require.NoError(t, err)
	assert.Equal(t, models.MonitorStatusSafe, state.LastStatus)
}

func TestScan_WeatherFailureFallsBackToNewsSignal(t *testing.T) {
	h := newMonitorHarness(t)

	h.news.EXPECT().
		Search(gomock.Any(), "Chennai", gomock.Any()).
		Return(floodHeadlines("Chennai", 5), nil)
	// Погода недоступна на всех повторах: оценка идёт только по новостям
	h.weather.EXPECT().
		GetCurrent(gomock.Any(), "Chennai").
		Return(nil, assert.AnError).
		Times(maxFetchRetries)
	h.submitter.EXPECT().
		Submit(gomock.Any(), gomock.Any()).
		Return(&orchestrator.SubmitResult{CrisisID: uuid.New(), Status: models.StatusWaitingApproval}, nil)

	state, err := h.monitor.Scan(context.Background(), "Chennai")

	require.NoError(t, err)
	assert.Equal(t, models.MonitorStatusFloodDetected, state.LastStatus)
}

func TestScan_NewsFailureKeepsPreviousStatus(t *testing.T) {
	h := newMonitorHarness(t)

	h.news.EXPECT().
		Search(gomock.Any(), "Chennai", gomock.Any()).
		Return(nil, assert.AnError).
		Times(maxFetchRetries)

	state, err := h.monitor.Scan(context.Background(), "Chennai")

	require.Error(t, err)
	assert.Equal(t, models.MonitorStatusSafe, state.LastStatus)
}

func TestCountFloodNews_MatchesKeywordAndLocation(t *testing.T) {
	items := []models.NewsItem{
		{Title: "Flash flood warning issued for Chennai suburbs"},
		{Title: "Heavy rainfall batters Chennai for third day"},
		{Title: "Chennai cricket team wins the final"},
		{Title: "Flooding devastates Mumbai coastline"},
		{Title: "Waterlogging slows traffic across chennai"},
	}

	assert.Equal(t, 3, countFloodNews(items, "Chennai"))
}

func TestEvaluateFlood_Thresholds(t *testing.T) {
	detected, reason := evaluateFlood(&models.Weather{Rain1h: 0.5}, strongNewsThreshold)
	assert.True(t, detected)
	assert.Equal(t, "Multiple confirmed flood reports", reason)

	detected, reason = evaluateFlood(&models.Weather{Rain1h: rainThresholdMM}, 0)
	assert.True(t, detected)
	assert.Equal(t, "Rainfall anomaly detected", reason)

	detected, _ = evaluateFlood(&models.Weather{Rain1h: 4.9}, strongNewsThreshold-1)
	assert.False(t, detected)
}
