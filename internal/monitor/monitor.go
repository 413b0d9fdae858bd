package monitor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/shenikar/crisis_command_system/internal/audit"
	"github.com/shenikar/crisis_command_system/internal/config"
	"github.com/shenikar/crisis_command_system/internal/models"
	"github.com/shenikar/crisis_command_system/internal/orchestrator"
)

//go:generate mockgen -source=monitor.go -destination=mocks/mock_monitor.go -package=mocks

// Пороговые значения правила обнаружения наводнения
const (
	strongNewsThreshold = 5
	rainThresholdMM     = 5.0
	newsWindow          = 48 * time.Hour

	maxFetchRetries = 3
	fetchRetryDelay = 2 * time.Second
)

// floodKeywords - ключевые слова наводнения в новостных заголовках
var floodKeywords = []string{
	"flood", "flooded", "flooding",
	"flash flood",
	"heavy rain", "heavy rainfall",
	"inundated", "waterlogging",
}

// WeatherSource - источник текущей погоды
type WeatherSource interface {
	GetCurrent(ctx context.Context, location string) (*models.Weather, error)
}

// NewsSource - источник новостных заголовков по локации
type NewsSource interface {
	Search(ctx context.Context, location string, since time.Time) ([]models.NewsItem, error)
}

// Submitter - вход оркестратора, общий для ручной подачи и монитора
type Submitter interface {
	Submit(ctx context.Context, req orchestrator.SubmitRequest) (*orchestrator.SubmitResult, error)
	PendingForLocation(location string) (uuid.UUID, bool)
}

// Monitor - автономный монитор внешних сигналов по отслеживаемым локациям.
// Хранит последний выведенный статус, чтобы подпороговые опросы не
// откатывали уже созданное ожидающее решение.
type Monitor struct {
	weather   WeatherSource
	news      NewsSource
	submitter Submitter
	auditLog  *audit.Log
	cfg       *config.Config
	logger    *logrus.Logger

	mu     sync.Mutex
	states map[string]*models.LocationMonitorState
}

// New создает монитор
func New(
	weather WeatherSource,
	news NewsSource,
	submitter Submitter,
	auditLog *audit.Log,
	cfg *config.Config,
	logger *logrus.Logger,
) *Monitor {
	m := &Monitor{
		weather:   weather,
		news:      news,
		submitter: submitter,
		auditLog:  auditLog,
		cfg:       cfg,
		logger:    logger,
		states:    make(map[string]*models.LocationMonitorState),
	}
	for _, location := range cfg.MonitorLocations {
		m.states[stateKey(location)] = &models.LocationMonitorState{
			Location:   location,
			LastStatus: models.MonitorStatusSafe,
		}
	}
	return m
}

// Start запускает периодический опрос всех отслеживаемых локаций
func (m *Monitor) Start(ctx context.Context) {
	if len(m.cfg.MonitorLocations) == 0 {
		m.logger.Info("No monitored locations configured, autonomous monitor idle")
		return
	}
	m.logger.WithField("locations", m.cfg.MonitorLocations).Info("Starting autonomous monitor...")
	go func() {
		ticker := time.NewTicker(m.cfg.MonitorInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				m.logger.Info("Stopping autonomous monitor.")
				return
			case <-ticker.C:
				for _, location := range m.cfg.MonitorLocations {
					if _, err := m.Scan(ctx, location); err != nil {
						m.logger.WithError(err).WithField("location", location).Warn("Monitor scan failed")
					}
				}
			}
		}
	}()
}

// Scan выполняет один цикл наблюдения за локацией и возвращает её состояние.
// При превышении порога синтезирует сообщение о кризисе и подаёт его через
// общий вход оркестратора; dedup-защита по локации остаётся за оркестратором.
func (m *Monitor) Scan(ctx context.Context, location string) (*models.LocationMonitorState, error) {
	log := m.logger.WithFields(logrus.Fields{
		"service":  "monitor",
		"method":   "Scan",
		"location": location,
	})
	now := time.Now().UTC()

	items, err := m.fetchNews(ctx, location)
	if err != nil {
		log.WithError(err).Warn("News fetch failed, keeping previous status")
		return m.snapshot(location), fmt.Errorf("monitor: news fetch failed: %w", err)
	}
	newsCount := countFloodNews(items, location)

	weather, err := m.fetchWeather(ctx, location)
	if err != nil {
		log.WithError(err).Warn("Weather fetch failed, evaluating news signal only")
		weather = &models.Weather{}
	}

	detected, reason := evaluateFlood(weather, newsCount)

	m.mu.Lock()
	state, ok := m.states[stateKey(location)]
	if !ok {
		state = &models.LocationMonitorState{Location: location, LastStatus: models.MonitorStatusSafe}
		m.states[stateKey(location)] = state
	}
	state.LastScanAt = now
	state.LastWeather = weather
	state.LastNewsCount = newsCount
	state.LastReason = reason
	alreadyPending := state.LastStatus == models.MonitorStatusAlreadyPending ||
		state.LastStatus == models.MonitorStatusFloodDetected
	m.mu.Unlock()

	if !detected {
		// Подпороговый опрос не откатывает статус, пока решение живо
		if alreadyPending && m.pendingStillLive(location) {
			return m.snapshot(location), nil
		}
		status := models.MonitorStatusSafe
		if newsCount > 0 {
			status = models.MonitorStatusMonitoring
		}
		m.setStatus(location, status, nil, nil)
		return m.snapshot(location), nil
	}

	// Порог пройден - синтезируем сообщение и подаём его оркестратору
	description := fmt.Sprintf("Severe flooding detected in %s: %s", location, reason)
	result, err := m.submitter.Submit(ctx, orchestrator.SubmitRequest{
		Description: description,
		Location:    location,
		Source:      "monitor",
	})
	if err != nil {
		log.WithError(err).Error("Failed to submit synthesized crisis report")
		return m.snapshot(location), fmt.Errorf("monitor: submit failed: %w", err)
	}

	switch result.Status {
	case models.StatusAlreadyPending:
		id := ""
		if result.PendingCrisisID != nil {
			id = result.PendingCrisisID.String()
		}
		m.setStatus(location, models.MonitorStatusAlreadyPending, &id, &now)
		log.WithField("pending_crisis_id", id).Info("Flood signal deduplicated against live decision")
	default:
		id := result.CrisisID.String()
		m.setStatus(location, models.MonitorStatusFloodDetected, &id, &now)
		crisisID := result.CrisisID
		m.auditLog.Append(audit.EventMonitorAlert, &crisisID, map[string]any{
			"location":   location,
			"reason":     reason,
			"news_count": newsCount,
			"rain_1h":    weather.Rain1h,
		})
		log.WithFields(logrus.Fields{
			"crisis_id": result.CrisisID,
			"status":    result.Status,
		}).Warn("Flood detected, crisis report submitted")
	}

	return m.snapshot(location), nil
}

// State возвращает снимок состояния наблюдения за локацией
func (m *Monitor) State(location string) (*models.LocationMonitorState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.states[stateKey(location)]
	if !ok {
		return nil, false
	}
	cp := *state
	return &cp, true
}

// fetchNews опрашивает источник новостей с ограниченными повторами
func (m *Monitor) fetchNews(ctx context.Context, location string) ([]models.NewsItem, error) {
	var lastErr error
	delay := fetchRetryDelay
	for attempt := 0; attempt < maxFetchRetries; attempt++ {
		items, err := m.news.Search(ctx, location, time.Now().UTC().Add(-newsWindow))
		if err == nil {
			return items, nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return nil, lastErr
}

// fetchWeather опрашивает источник погоды с ограниченными повторами
func (m *Monitor) fetchWeather(ctx context.Context, location string) (*models.Weather, error) {
	var lastErr error
	delay := fetchRetryDelay
	for attempt := 0; attempt < maxFetchRetries; attempt++ {
		weather, err := m.weather.GetCurrent(ctx, location)
		if err == nil {
			return weather, nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return nil, lastErr
}

// pendingStillLive проверяет у оркестратора, живо ли ещё решение для локации
func (m *Monitor) pendingStillLive(location string) bool {
	_, ok := m.submitter.PendingForLocation(location)
	return ok
}

func (m *Monitor) setStatus(location, status string, crisisID *string, detectedAt *time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.states[stateKey(location)]
	if !ok {
		state = &models.LocationMonitorState{Location: location}
		m.states[stateKey(location)] = state
	}
	state.LastStatus = status
	state.PendingCrisisID = crisisID
	state.DetectedAt = detectedAt
}

func (m *Monitor) snapshot(location string) *models.LocationMonitorState {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.states[stateKey(location)]
	if !ok {
		return &models.LocationMonitorState{Location: location, LastStatus: models.MonitorStatusSafe}
	}
	cp := *state
	return &cp
}

// countFloodNews отбирает заголовки с ключевыми словами наводнения,
// относящиеся к локации
func countFloodNews(items []models.NewsItem, location string) int {
	count := 0
	loc := strings.ToLower(location)
	for _, item := range items {
		title := strings.ToLower(item.Title)
		matched := false
		for _, kw := range floodKeywords {
			if strings.Contains(title, kw) {
				matched = true
				break
			}
		}
		if matched && strings.Contains(title, loc) {
			count++
		}
	}
	return count
}

// evaluateFlood - правило обнаружения: сильный новостной сигнал либо
// аномальные осадки
func evaluateFlood(weather *models.Weather, newsCount int) (bool, string) {
	if newsCount >= strongNewsThreshold {
		return true, "Multiple confirmed flood reports"
	}
	if weather != nil && weather.Rain1h >= rainThresholdMM {
		return true, "Rainfall anomaly detected"
	}
	return false, "Weather within safe range"
}

func stateKey(location string) string {
	return strings.ToLower(strings.TrimSpace(location))
}
