package v1

import (
	"time"

	"github.com/google/uuid"
)

// SubmitCrisisRequest DTO для подачи сообщения о кризисе
// @Description DTO для подачи сообщения о кризисе
type SubmitCrisisRequest struct {
	Description   string `json:"description" validate:"required,min=3,max=2000"`
	Location      string `json:"location,omitempty" validate:"omitempty,max=255"`
	PreAuthorized bool   `json:"pre_authorized"`
}

// SubmitCrisisResponse DTO для ответа на подачу
// @Description DTO для ответа на подачу
type SubmitCrisisResponse struct {
	CrisisID        uuid.UUID  `json:"crisis_id"`
	Status          string     `json:"status"`
	RiskScore       float64    `json:"risk_score"`
	Category        string     `json:"category"`
	PendingCrisisID *uuid.UUID `json:"pending_crisis_id,omitempty"`
}

// CrisisStatusResponse DTO для ответа на запрос статуса
// @Description DTO для ответа на запрос статуса
type CrisisStatusResponse struct {
	CrisisID    uuid.UUID `json:"crisis_id"`
	State       string    `json:"state"`
	RiskScore   float64   `json:"risk_score"`
	Category    string    `json:"category"`
	PlanSummary []string  `json:"plan_summary,omitempty"`
}

// CrisisReportResponse DTO для сводного отчёта по кризису
// @Description DTO для сводного отчёта по кризису
type CrisisReportResponse struct {
	CrisisID       uuid.UUID  `json:"crisis_id"`
	Description    string     `json:"description"`
	Location       string     `json:"location"`
	Category       string     `json:"category"`
	RiskScore      float64    `json:"risk_score"`
	SubmittedAt    time.Time  `json:"submitted_at"`
	ApprovalStatus string     `json:"approval_status"`
	ApprovalTime   *time.Time `json:"approval_time,omitempty"`
	DispatchTime   *time.Time `json:"dispatch_time,omitempty"`
	NotifiedUnits  []string   `json:"notified_units"`
}

// AuditEventResponse DTO для записи журнала аудита
// @Description DTO для записи журнала аудита
type AuditEventResponse struct {
	Sequence  int64          `json:"sequence"`
	Timestamp time.Time      `json:"timestamp"`
	EventType string         `json:"event_type"`
	CrisisID  *uuid.UUID     `json:"crisis_id,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// ScanRequest DTO для ручного запуска цикла наблюдения
// @Description DTO для ручного запуска цикла наблюдения
type ScanRequest struct {
	Location string `json:"location" validate:"required,min=2,max=255"`
}

// ScanResponse DTO для состояния наблюдения за локацией
// @Description DTO для состояния наблюдения за локацией
type ScanResponse struct {
	Location        string     `json:"location"`
	Status          string     `json:"status"`
	Reason          string     `json:"reason,omitempty"`
	NewsCount       int        `json:"news_count"`
	PendingCrisisID *string    `json:"pending_crisis_id,omitempty"`
	LastScanAt      time.Time  `json:"last_scan_at"`
	DetectedAt      *time.Time `json:"detected_at,omitempty"`
}
