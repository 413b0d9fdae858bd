package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/shenikar/crisis_command_system/internal/audit"
	"github.com/shenikar/crisis_command_system/internal/models"
	"github.com/shenikar/crisis_command_system/internal/notifier"
)

// Executor выполняет отправку ресурсов по утверждённому плану.
// Идемпотентен по crisis_id: повторный вызов для уже отправленного кризиса
// возвращает сохранённую запись без повторной эмиссии событий.
type Executor struct {
	auditLog  *audit.Log
	publisher notifier.Publisher
	logger    *logrus.Logger

	mu      sync.Mutex
	records map[uuid.UUID]*models.DispatchRecord
}

// NewExecutor создает исполнитель отправки
func NewExecutor(auditLog *audit.Log, publisher notifier.Publisher, logger *logrus.Logger) *Executor {
	return &Executor{
		auditLog:  auditLog,
		publisher: publisher,
		logger:    logger,
		records:   make(map[uuid.UUID]*models.DispatchRecord),
	}
}

// Execute фиксирует отправку юнитов по плану и возвращает запись об отправке.
// Проверка и вставка записи выполняются в одной критической секции, поэтому
// из двух конкурентных вызовов события аудита эмитирует ровно один.
func (e *Executor) Execute(ctx context.Context, plan models.DispatchPlan) (*models.DispatchRecord, error) {
	log := e.logger.WithFields(logrus.Fields{
		"service":   "dispatch",
		"method":    "Execute",
		"crisis_id": plan.CrisisID,
	})

	e.mu.Lock()
	if existing, ok := e.records[plan.CrisisID]; ok {
		e.mu.Unlock()
		log.Info("Dispatch already executed, returning existing record")
		return copyRecord(existing), nil
	}

	record := &models.DispatchRecord{
		CrisisID:     plan.CrisisID,
		Units:        append([]models.Unit(nil), plan.Units...),
		Skipped:      append([]string(nil), plan.Skipped...),
		DispatchedAt: time.Now().UTC(),
	}
	e.records[plan.CrisisID] = record
	e.mu.Unlock()

	// События аудита и уведомления - вне критической секции
	crisisID := plan.CrisisID
	for _, unit := range record.Units {
		e.auditLog.Append(audit.EventUnitDispatched, &crisisID, map[string]any{
			"category":    unit.Category,
			"callsign":    unit.Callsign,
			"eta_minutes": unit.ETAMinutes,
		})
	}
	for _, category := range record.Skipped {
		e.auditLog.Append(audit.EventDispatchSkipped, &crisisID, map[string]any{
			"category": category,
			"reason":   "no units available",
		})
	}
	e.auditLog.Append(audit.EventDispatchCompleted, &crisisID, map[string]any{
		"total_units": len(record.Units),
		"skipped":     len(record.Skipped),
	})

	if e.publisher != nil {
		if err := e.publisher.PublishDispatch(ctx, notifier.DispatchNotification{
			CrisisID:     record.CrisisID,
			Units:        record.Units,
			DispatchedAt: record.DispatchedAt,
		}); err != nil {
			// Доставка уведомления не влияет на результат отправки
			log.WithError(err).Warn("Failed to publish dispatch notification")
		}
	}

	log.WithField("units", len(record.Units)).Info("Dispatch executed")
	return copyRecord(record), nil
}

// Record возвращает запись об отправке, если она существует
func (e *Executor) Record(crisisID uuid.UUID) (*models.DispatchRecord, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	record, ok := e.records[crisisID]
	if !ok {
		return nil, false
	}
	return copyRecord(record), true
}

func copyRecord(r *models.DispatchRecord) *models.DispatchRecord {
	cp := *r
	cp.Units = append([]models.Unit(nil), r.Units...)
	cp.Skipped = append([]string(nil), r.Skipped...)
	return &cp
}
