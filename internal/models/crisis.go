package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы, возвращаемые оркестратором при подаче сообщения о кризисе
const (
	StatusExecuted        = "EXECUTED"
	StatusWaitingApproval = "WAITING_APPROVAL"
	StatusAlreadyPending  = "ALREADY_PENDING"
)

// CrisisReport представляет одно сообщение о кризисе.
// Неизменяемо после создания: оркестратор заполняет поля один раз.
type CrisisReport struct {
	ID            uuid.UUID `json:"id"`
	Description   string    `json:"description"`
	Location      string    `json:"location"`
	Category      string    `json:"category"`
	Severity      string    `json:"severity"`
	RiskScore     float64   `json:"risk_score"`
	PreAuthorized bool      `json:"pre_authorized"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// Unit - одна единица ресурса, закреплённая за кризисом
type Unit struct {
	Category   string        `json:"category"`
	Callsign   string        `json:"callsign"`
	ETA        time.Duration `json:"eta"`
	ETAMinutes float64       `json:"eta_minutes"`
}

// DispatchPlan - результат разрешения конфликтов для одного кризиса.
// Юниты резервируются из пула в момент построения плана.
type DispatchPlan struct {
	CrisisID uuid.UUID `json:"crisis_id"`
	Units    []Unit    `json:"units"`
	// Skipped - категория запрошена, но свободных юнитов не было
	Skipped []string `json:"skipped,omitempty"`
}

// DispatchRecord - запись о выполненной отправке ресурсов.
// Не более одной записи на crisis_id за всё время работы.
type DispatchRecord struct {
	CrisisID     uuid.UUID `json:"crisis_id"`
	Units        []Unit    `json:"units"`
	Skipped      []string  `json:"skipped,omitempty"`
	DispatchedAt time.Time `json:"dispatched_at"`
}
