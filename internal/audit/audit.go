package audit

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Типы событий аудита
const (
	EventCrisisReceived    = "CRISIS_RECEIVED"
	EventAutoExecuted      = "AUTO_EXECUTED"
	EventCallTriggered     = "CALL_TRIGGERED"
	EventCallFailed        = "CALL_FAILED"
	EventApprovalExecuted  = "APPROVAL_EXECUTED"
	EventApprovalRejected  = "APPROVAL_REJECTED"
	EventApprovalTimeout   = "APPROVAL_TIMEOUT"
	EventUnknownApproval   = "UNKNOWN_OR_EXPIRED_APPROVAL"
	EventUnitDispatched    = "UNIT_DISPATCHED"
	EventDispatchSkipped   = "DISPATCH_SKIPPED"
	EventDispatchCompleted = "DISPATCH_COMPLETED"
	EventDispatchFailed    = "DISPATCH_FAILED"
	EventMonitorAlert      = "MONITOR_ALERT"
	EventHighRiskOngoing   = "HIGH_RISK_ONGOING"
)

// Event - одна запись журнала аудита. Неизменяема после добавления.
// Sequence присваивается журналом в момент коммита, порядок следования
// совпадает с реальным порядком коммитов.
type Event struct {
	Sequence  int64          `json:"sequence"`
	Timestamp time.Time      `json:"timestamp"`
	EventType string         `json:"event_type"`
	CrisisID  *uuid.UUID     `json:"crisis_id,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// Filter - необязательный фильтр чтения журнала
type Filter struct {
	CrisisID  *uuid.UUID
	EventType string
}

// Log - журнал аудита с линеаризованными добавлениями.
// Номер последовательности и отметка времени присваиваются внутри одной
// критической секции, поэтому два конкурентных Append никогда не получат
// один номер и не лягут в журнал вне порядка коммита.
type Log struct {
	mu     sync.RWMutex
	events []Event
	seq    int64
}

// NewLog создает пустой журнал аудита
func NewLog() *Log {
	return &Log{
		events: make([]Event, 0, 64),
	}
}

// Append добавляет событие и возвращает присвоенный номер последовательности.
// Под блокировкой не выполняется никакого ввода-вывода.
func (l *Log) Append(eventType string, crisisID *uuid.UUID, payload map[string]any) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	var idCopy *uuid.UUID
	if crisisID != nil {
		id := *crisisID
		idCopy = &id
	}
	l.events = append(l.events, Event{
		Sequence:  l.seq,
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		CrisisID:  idCopy,
		Payload:   payload,
	})
	return l.seq
}

// Read возвращает согласованный снимок журнала.
// Читатель никогда не увидит событие N раньше события N-1.
func (l *Log) Read(filter *Filter) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Event, 0, len(l.events))
	for _, e := range l.events {
		if filter != nil {
			if filter.CrisisID != nil && (e.CrisisID == nil || *e.CrisisID != *filter.CrisisID) {
				continue
			}
			if filter.EventType != "" && e.EventType != filter.EventType {
				continue
			}
		}
		out = append(out, e)
	}
	return out
}

// Len возвращает текущее количество событий в журнале
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}
