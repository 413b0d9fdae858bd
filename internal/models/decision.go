package models

import (
	"time"

	"github.com/google/uuid"
)

// DecisionState - состояние ожидающего решения
type DecisionState string

const (
	StateAwaitingApproval DecisionState = "AWAITING_APPROVAL"
	StateApproved         DecisionState = "APPROVED"
	StateRejected         DecisionState = "REJECTED"
	StateExpired          DecisionState = "EXPIRED"
	StateExecuted         DecisionState = "EXECUTED"
	// StateDeduplicated - сообщение поглощено живым решением той же локации
	StateDeduplicated DecisionState = "DEDUPLICATED"
)

// PendingDecision - решение, ожидающее подтверждения оператора.
// Владелец - оркестратор; все изменения только под его мьютексом.
type PendingDecision struct {
	CrisisID  uuid.UUID     `json:"crisis_id"`
	Location  string        `json:"location"`
	Plan      DispatchPlan  `json:"plan"`
	CallSID   string        `json:"call_sid,omitempty"`
	State     DecisionState `json:"state"`
	CreatedAt time.Time     `json:"created_at"`
	ExpiresAt time.Time     `json:"expires_at"`
}

// CrisisStatus - снимок состояния кризиса для запроса статуса
type CrisisStatus struct {
	CrisisID    uuid.UUID     `json:"crisis_id"`
	State       DecisionState `json:"state"`
	RiskScore   float64       `json:"risk_score"`
	Category    string        `json:"category"`
	PlanSummary []string      `json:"plan_summary,omitempty"`
}

// CrisisReportView - сводный отчёт по кризису
type CrisisReportView struct {
	CrisisID       uuid.UUID     `json:"crisis_id"`
	Description    string        `json:"description"`
	Location       string        `json:"location"`
	Category       string        `json:"category"`
	RiskScore      float64       `json:"risk_score"`
	SubmittedAt    time.Time     `json:"submitted_at"`
	ApprovalStatus DecisionState `json:"approval_status"`
	ApprovalTime   *time.Time    `json:"approval_time,omitempty"`
	DispatchTime   *time.Time    `json:"dispatch_time,omitempty"`
	NotifiedUnits  []string      `json:"notified_units"`
}
