package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/shenikar/crisis_command_system/internal/audit"
	"github.com/shenikar/crisis_command_system/internal/config"
	"github.com/shenikar/crisis_command_system/internal/dispatch"
	"github.com/shenikar/crisis_command_system/internal/models"
	"github.com/shenikar/crisis_command_system/internal/risk"
	"github.com/shenikar/crisis_command_system/internal/voice"
)

//go:generate mockgen -source=orchestrator.go -destination=mocks/mock_orchestrator.go -package=mocks

// Executor определяет контракт исполнителя отправки ресурсов
type Executor interface {
	Execute(ctx context.Context, plan models.DispatchPlan) (*models.DispatchRecord, error)
}

// Archive определяет контракт долговременного хранилища отчётов о кризисах.
// Запись ведётся вне критической секции оркестратора (write-behind).
type Archive interface {
	SaveReport(ctx context.Context, report *models.CrisisReport) error
	UpdateOutcome(ctx context.Context, crisisID uuid.UUID, state models.DecisionState, approvalTime, dispatchTime *time.Time, units []string) error
	GetReport(ctx context.Context, crisisID uuid.UUID) (*models.CrisisReportView, error)
	ListReports(ctx context.Context) ([]*models.CrisisReportView, error)
}

// SubmitRequest - входные данные подачи сообщения о кризисе
type SubmitRequest struct {
	Description   string
	Location      string
	PreAuthorized bool
	Source        string
}

// SubmitResult - результат подачи
type SubmitResult struct {
	CrisisID  uuid.UUID
	Status    string
	RiskScore float64
	Category  string
	// PendingCrisisID - id уже живого решения при статусе ALREADY_PENDING
	PendingCrisisID *uuid.UUID
	Record          *models.DispatchRecord
}

// ApprovalOutcome - результат обработки входного сигнала подтверждения
type ApprovalOutcome struct {
	Accepted bool
	Status   string
	Message  string
	Record   *models.DispatchRecord
}

// crisisRecord - внутренняя запись оркестратора по одному кризису
type crisisRecord struct {
	report       models.CrisisReport
	state        models.DecisionState
	plan         models.DispatchPlan
	callSID      string
	approvalTime *time.Time
	dispatchTime *time.Time
}

// Orchestrator - ядро подтверждения и отправки.
// Единолично владеет картой ожидающих решений и dedup-индексом по локациям;
// все мутации - под одним мьютексом. Блокирующий ввод-вывод (звонок, архив)
// выполняется строго вне критической секции.
type Orchestrator struct {
	classifier risk.Classifier
	pool       *dispatch.Pool
	executor   Executor
	caller     voice.Caller
	archive    Archive
	auditLog   *audit.Log
	cfg        *config.Config
	logger     *logrus.Logger

	mu         sync.Mutex
	crises     map[uuid.UUID]*crisisRecord
	pending    map[uuid.UUID]*models.PendingDecision
	byLocation map[string]uuid.UUID

	// now подменяется в тестах
	now func() time.Time
}

// New создает оркестратор
func New(
	classifier risk.Classifier,
	pool *dispatch.Pool,
	executor Executor,
	caller voice.Caller,
	archive Archive,
	auditLog *audit.Log,
	cfg *config.Config,
	logger *logrus.Logger,
) *Orchestrator {
	return &Orchestrator{
		classifier: classifier,
		pool:       pool,
		executor:   executor,
		caller:     caller,
		archive:    archive,
		auditLog:   auditLog,
		cfg:        cfg,
		logger:     logger,
		crises:     make(map[uuid.UUID]*crisisRecord),
		pending:    make(map[uuid.UUID]*models.PendingDecision),
		byLocation: make(map[string]uuid.UUID),
		now:        time.Now,
	}
}

// Submit принимает сообщение о кризисе: оценивает риск и либо исполняет
// план сразу, либо создает ожидающее решение и инициирует звонок
// подтверждения. Сам звонок выполняется вне критической секции.
func (o *Orchestrator) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	log := o.logger.WithFields(logrus.Fields{
		"service": "orchestrator",
		"method":  "Submit",
		"source":  req.Source,
	})

	if strings.TrimSpace(req.Description) == "" {
		return nil, fmt.Errorf("%w: description is required", models.ErrValidation)
	}

	crisisID := uuid.New()
	submittedAt := o.now().UTC()
	location := req.Location
	if strings.TrimSpace(location) == "" {
		location = "Unknown"
	}

	o.auditLog.Append(audit.EventCrisisReceived, &crisisID, map[string]any{
		"description":    req.Description,
		"location":       location,
		"pre_authorized": req.PreAuthorized,
		"source":         req.Source,
	})

	assessment := o.classifier.Classify(req.Description, location)
	report := models.CrisisReport{
		ID:            crisisID,
		Description:   req.Description,
		Location:      location,
		Category:      assessment.Category,
		Severity:      assessment.Severity,
		RiskScore:     assessment.Score,
		PreAuthorized: req.PreAuthorized,
		SubmittedAt:   submittedAt,
	}
	log = log.WithFields(logrus.Fields{
		"crisis_id":  crisisID,
		"risk_score": assessment.Score,
		"category":   assessment.Category,
	})

	candidate := dispatch.Candidate{
		CrisisID:    crisisID,
		Category:    assessment.Category,
		RiskScore:   assessment.Score,
		SubmittedAt: submittedAt,
	}

	// Ниже порога или предварительно авторизован - исполняем без звонка,
	// ожидающее решение не создаётся вовсе
	if assessment.Score < o.cfg.ApprovalThreshold || req.PreAuthorized {
		return o.autoExecute(ctx, log, report, candidate)
	}

	// Создание ожидающего решения: dedup-проверка и вставка в одной
	// критической секции
	o.mu.Lock()
	if liveID, ok := o.byLocation[locationKey(location)]; ok {
		// Дублирующее сообщение тоже получает запись: его id уже ушёл в
		// журнал аудита и должен оставаться разрешимым через статус
		o.crises[crisisID] = &crisisRecord{
			report: report,
			state:  models.StateDeduplicated,
		}
		o.mu.Unlock()
		log.WithField("pending_crisis_id", liveID).Info("Live decision already pending for location")
		pendingID := liveID
		return &SubmitResult{
			CrisisID:        crisisID,
			Status:          models.StatusAlreadyPending,
			RiskScore:       assessment.Score,
			Category:        assessment.Category,
			PendingCrisisID: &pendingID,
		}, nil
	}

	plan := o.pool.ResolveOne(candidate)
	decision := &models.PendingDecision{
		CrisisID:  crisisID,
		Location:  location,
		Plan:      plan,
		State:     models.StateAwaitingApproval,
		CreatedAt: submittedAt,
		ExpiresAt: submittedAt.Add(o.cfg.ApprovalTimeout),
	}
	o.pending[crisisID] = decision
	o.byLocation[locationKey(location)] = crisisID
	o.crises[crisisID] = &crisisRecord{
		report: report,
		state:  models.StateAwaitingApproval,
		plan:   plan,
	}
	o.mu.Unlock()

	o.archiveReport(ctx, log, &report)

	// Исходящий звонок - блокирующий ввод-вывод, строго вне блокировки
	callbackURL := fmt.Sprintf("%s/api/v1/voice?crisis_id=%s", o.cfg.PublicURL, crisisID)
	callSID, err := o.caller.PlaceCall(ctx, o.cfg.OfficerPhone, callbackURL)
	if err != nil {
		// Решение остаётся AWAITING_APPROVAL и может быть подтверждено
		// вручную либо после повторного звонка
		log.WithError(err).Error("Failed to place approval call")
		o.auditLog.Append(audit.EventCallFailed, &crisisID, map[string]any{
			"error": err.Error(),
		})
		return &SubmitResult{
			CrisisID:  crisisID,
			Status:    models.StatusWaitingApproval,
			RiskScore: assessment.Score,
			Category:  assessment.Category,
		}, nil
	}

	// Повторная валидация после ввода-вывода: решение могло быть
	// подтверждено или истечь, пока длился запрос к провайдеру. Провайдер
	// начинает звонок раньше, чем возвращает ответ на его создание, поэтому
	// CALL_TRIGGERED фиксируется в той же критической секции, что и
	// проверка живости решения: уже зафиксированный исход не может
	// оказаться в журнале раньше породившего его звонка
	o.mu.Lock()
	decision, live := o.pending[crisisID]
	if live && decision.State == models.StateAwaitingApproval {
		decision.CallSID = callSID
		if rec, ok := o.crises[crisisID]; ok {
			rec.callSID = callSID
		}
		o.auditLog.Append(audit.EventCallTriggered, &crisisID, map[string]any{
			"call_sid": callSID,
			"to":       o.cfg.OfficerPhone,
		})
	}
	o.mu.Unlock()

	if !live {
		log.WithField("call_sid", callSID).Info("Decision resolved before call placement completed")
	} else {
		log.WithField("call_sid", callSID).Info("Approval call triggered")
	}

	return &SubmitResult{
		CrisisID:  crisisID,
		Status:    models.StatusWaitingApproval,
		RiskScore: assessment.Score,
		Category:  assessment.Category,
	}, nil
}

// autoExecute - путь без подтверждения: план резервируется и исполняется сразу
func (o *Orchestrator) autoExecute(ctx context.Context, log *logrus.Entry, report models.CrisisReport, candidate dispatch.Candidate) (*SubmitResult, error) {
	crisisID := report.ID

	o.mu.Lock()
	plan := o.pool.ResolveOne(candidate)
	o.crises[crisisID] = &crisisRecord{
		report: report,
		state:  models.StateApproved,
		plan:   plan,
	}
	o.mu.Unlock()

	record, err := o.executor.Execute(ctx, plan)
	if err != nil {
		o.pool.Release(plan)
		o.auditLog.Append(audit.EventDispatchFailed, &crisisID, map[string]any{
			"error": err.Error(),
		})
		log.WithError(err).Error("Auto dispatch failed")
		return nil, fmt.Errorf("orchestrator: auto dispatch failed: %w", err)
	}

	o.mu.Lock()
	if rec, ok := o.crises[crisisID]; ok {
		rec.state = models.StateExecuted
		t := record.DispatchedAt
		rec.dispatchTime = &t
	}
	o.mu.Unlock()

	o.auditLog.Append(audit.EventAutoExecuted, &crisisID, map[string]any{
		"risk_score": report.RiskScore,
		"category":   report.Category,
		"units":      unitCallsigns(record.Units),
	})
	log.Info("Crisis auto-executed without approval")
	o.alertHighRiskOngoing(log, report, record)

	o.archiveReport(ctx, log, &report)
	o.archiveOutcome(ctx, log, crisisID, models.StateExecuted, nil, &record.DispatchedAt, unitCallsigns(record.Units))

	return &SubmitResult{
		CrisisID:  crisisID,
		Status:    models.StatusExecuted,
		RiskScore: report.RiskScore,
		Category:  report.Category,
		Record:    record,
	}, nil
}

// ResolveApproval обрабатывает нажатую клавишу входного вебхука.
// Поиск, проверка истечения, переход и изъятие из живого индекса выполняются
// в одной критической секции - это и даёт отправку не более одного раза при
// дублях доставки.
func (o *Orchestrator) ResolveApproval(ctx context.Context, crisisID uuid.UUID, digit string) (*ApprovalOutcome, error) {
	log := o.logger.WithFields(logrus.Fields{
		"service":   "orchestrator",
		"method":    "ResolveApproval",
		"crisis_id": crisisID,
		"digit":     digit,
	})
	now := o.now().UTC()

	o.mu.Lock()
	o.expireLocked(now)

	decision, ok := o.pending[crisisID]
	if !ok || decision.State != models.StateAwaitingApproval {
		o.mu.Unlock()
		log.Warn("Approval signal for unknown or already resolved crisis")
		o.auditLog.Append(audit.EventUnknownApproval, &crisisID, map[string]any{
			"digit": digit,
		})
		return &ApprovalOutcome{
			Accepted: false,
			Status:   string(models.StateExpired),
			Message:  "This crisis is unknown or no longer awaiting approval.",
		}, nil
	}

	approved := digit == o.cfg.ApproveDigit
	callSID := decision.CallSID
	plan := decision.Plan

	if approved {
		decision.State = models.StateApproved
	} else {
		decision.State = models.StateRejected
	}
	// Изъятие из живого индекса в той же критической секции: повторная
	// доставка того же сигнала уже не найдёт живой записи
	delete(o.pending, crisisID)
	delete(o.byLocation, locationKey(decision.Location))

	rec := o.crises[crisisID]
	if rec != nil {
		rec.state = decision.State
		t := now
		rec.approvalTime = &t
	}
	o.mu.Unlock()

	if !approved {
		o.pool.Release(plan)
		o.auditLog.Append(audit.EventApprovalRejected, &crisisID, map[string]any{
			"digit":    digit,
			"call_sid": callSID,
		})
		log.Info("Dispatch rejected by operator")
		o.archiveOutcome(ctx, log, crisisID, models.StateRejected, &now, nil, nil)
		return &ApprovalOutcome{
			Accepted: false,
			Status:   string(models.StateRejected),
			Message:  "Dispatch rejected. No units will be sent.",
		}, nil
	}

	record, err := o.executor.Execute(ctx, plan)
	if err != nil {
		// Решение уже изъято из живого индекса: возвращаем юниты и
		// фиксируем сбой, чтобы резерв не завис за мёртвым решением
		o.pool.Release(plan)
		o.auditLog.Append(audit.EventDispatchFailed, &crisisID, map[string]any{
			"error":    err.Error(),
			"call_sid": callSID,
		})
		log.WithError(err).Error("Dispatch failed after approval")
		return nil, fmt.Errorf("orchestrator: dispatch failed: %w", err)
	}

	o.mu.Lock()
	var report models.CrisisReport
	if rec, ok := o.crises[crisisID]; ok {
		rec.state = models.StateExecuted
		t := record.DispatchedAt
		rec.dispatchTime = &t
		report = rec.report
	}
	o.mu.Unlock()

	o.auditLog.Append(audit.EventApprovalExecuted, &crisisID, map[string]any{
		"call_sid": callSID,
		"digit":    digit,
		"units":    unitCallsigns(record.Units),
	})
	log.WithField("units", len(record.Units)).Info("Approval executed, units dispatched")
	o.alertHighRiskOngoing(log, report, record)
	o.archiveOutcome(ctx, log, crisisID, models.StateExecuted, &now, &record.DispatchedAt, unitCallsigns(record.Units))

	return &ApprovalOutcome{
		Accepted: true,
		Status:   string(models.StateExecuted),
		Message:  "Dispatch approved. Units are on the way.",
		Record:   record,
	}, nil
}

// ExpireStale переводит просроченные решения в EXPIRED.
// Использует ту же блокировку, что и ResolveApproval, поэтому подтверждение
// и истечение не могут выиграть одновременно.
func (o *Orchestrator) ExpireStale(now time.Time) []uuid.UUID {
	o.mu.Lock()
	expired := o.expireLocked(now.UTC())
	o.mu.Unlock()
	return expired
}

// expireLocked выполняет проход истечения. Вызывается только под мьютексом.
// Возврат юнитов и записи аудита выполняются здесь же: пул и журнал имеют
// собственные ограниченные блокировки без ввода-вывода.
func (o *Orchestrator) expireLocked(now time.Time) []uuid.UUID {
	var expired []uuid.UUID
	for id, decision := range o.pending {
		if decision.State != models.StateAwaitingApproval || !decision.ExpiresAt.Before(now) {
			continue
		}
		decision.State = models.StateExpired
		delete(o.pending, id)
		delete(o.byLocation, locationKey(decision.Location))
		if rec, ok := o.crises[id]; ok {
			rec.state = models.StateExpired
		}
		o.pool.Release(decision.Plan)

		crisisID := id
		o.auditLog.Append(audit.EventApprovalTimeout, &crisisID, map[string]any{
			"expired_at": decision.ExpiresAt,
			"location":   decision.Location,
		})
		o.logger.WithFields(logrus.Fields{
			"service":   "orchestrator",
			"crisis_id": id,
		}).Warn("Pending decision expired without approval")
		expired = append(expired, id)
	}
	return expired
}

// StartSweeper запускает периодический проход истечения
func (o *Orchestrator) StartSweeper(ctx context.Context) {
	interval := o.cfg.ExpirySweep
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				o.ExpireStale(now)
			}
		}
	}()
}

// GetStatus возвращает снимок состояния кризиса.
// Чтение идёт через то же хранилище, что и записи, с ленивой проверкой
// истечения.
func (o *Orchestrator) GetStatus(crisisID uuid.UUID) (*models.CrisisStatus, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.expireLocked(o.now().UTC())

	rec, ok := o.crises[crisisID]
	if !ok {
		return nil, models.ErrUnknownCrisis
	}
	return &models.CrisisStatus{
		CrisisID:    crisisID,
		State:       rec.state,
		RiskScore:   rec.report.RiskScore,
		Category:    rec.report.Category,
		PlanSummary: unitCallsigns(rec.plan.Units),
	}, nil
}

// PendingForLocation возвращает id живого решения для локации, если оно есть
func (o *Orchestrator) PendingForLocation(location string) (uuid.UUID, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	id, ok := o.byLocation[locationKey(location)]
	return id, ok
}

// Report строит сводный отчёт по кризису. Для кризисов текущего процесса
// источником истины служит память; для остальных - архив.
func (o *Orchestrator) Report(ctx context.Context, crisisID uuid.UUID) (*models.CrisisReportView, error) {
	o.mu.Lock()
	rec, ok := o.crises[crisisID]
	if ok {
		view := o.viewLocked(rec)
		o.mu.Unlock()
		return view, nil
	}
	o.mu.Unlock()

	if o.archive == nil {
		return nil, models.ErrUnknownCrisis
	}
	view, err := o.archive.GetReport(ctx, crisisID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownCrisis, crisisID)
	}
	return view, nil
}

// ListReports возвращает отчёты по всем кризисам, упорядоченные по времени
// подачи. Для кризисов текущего процесса источником служит память; история
// прошлых запусков добирается из архива.
func (o *Orchestrator) ListReports(ctx context.Context) []*models.CrisisReportView {
	o.mu.Lock()
	views := make([]*models.CrisisReportView, 0, len(o.crises))
	inMemory := make(map[uuid.UUID]bool, len(o.crises))
	for id, rec := range o.crises {
		views = append(views, o.viewLocked(rec))
		inMemory[id] = true
	}
	o.mu.Unlock()

	if o.archive != nil {
		archived, err := o.archive.ListReports(ctx)
		if err != nil {
			o.logger.WithFields(logrus.Fields{
				"service": "orchestrator",
				"method":  "ListReports",
			}).WithError(err).Error("Failed to list archived crisis reports")
		}
		for _, view := range archived {
			if !inMemory[view.CrisisID] {
				views = append(views, view)
			}
		}
	}

	sort.Slice(views, func(i, j int) bool {
		return views[i].SubmittedAt.Before(views[j].SubmittedAt)
	})
	return views
}

// viewLocked собирает отчёт из внутренней записи. Только под мьютексом.
func (o *Orchestrator) viewLocked(rec *crisisRecord) *models.CrisisReportView {
	view := &models.CrisisReportView{
		CrisisID:       rec.report.ID,
		Description:    rec.report.Description,
		Location:       rec.report.Location,
		Category:       rec.report.Category,
		RiskScore:      rec.report.RiskScore,
		SubmittedAt:    rec.report.SubmittedAt,
		ApprovalStatus: rec.state,
		NotifiedUnits:  []string{},
	}
	if rec.approvalTime != nil {
		t := *rec.approvalTime
		view.ApprovalTime = &t
	}
	if rec.dispatchTime != nil {
		t := *rec.dispatchTime
		view.DispatchTime = &t
	}
	if rec.state == models.StateExecuted {
		view.NotifiedUnits = unitCallsigns(rec.plan.Units)
	}
	return view
}

// alertHighRiskOngoing фиксирует, что после отправки ресурсов кризис с
// высоким риском продолжается и требует наблюдения
func (o *Orchestrator) alertHighRiskOngoing(log *logrus.Entry, report models.CrisisReport, record *models.DispatchRecord) {
	if report.RiskScore < o.cfg.ApprovalThreshold {
		return
	}
	crisisID := report.ID
	o.auditLog.Append(audit.EventHighRiskOngoing, &crisisID, map[string]any{
		"risk_score": report.RiskScore,
		"category":   report.Category,
		"location":   report.Location,
		"units":      unitCallsigns(record.Units),
	})
	log.WithField("risk_score", report.RiskScore).Warn("High risk crisis remains ongoing after dispatch")
}

// archiveReport пишет отчёт в архив вне критической секции
func (o *Orchestrator) archiveReport(ctx context.Context, log *logrus.Entry, report *models.CrisisReport) {
	if o.archive == nil {
		return
	}
	if err := o.archive.SaveReport(ctx, report); err != nil {
		log.WithError(err).Error("Failed to archive crisis report")
	}
}

// archiveOutcome фиксирует исход кризиса в архиве вне критической секции
func (o *Orchestrator) archiveOutcome(ctx context.Context, log *logrus.Entry, crisisID uuid.UUID, state models.DecisionState, approvalTime, dispatchTime *time.Time, units []string) {
	if o.archive == nil {
		return
	}
	if err := o.archive.UpdateOutcome(ctx, crisisID, state, approvalTime, dispatchTime, units); err != nil {
		log.WithError(err).Error("Failed to archive crisis outcome")
	}
}

func unitCallsigns(units []models.Unit) []string {
	out := make([]string, 0, len(units))
	for _, u := range units {
		out = append(out, u.Callsign)
	}
	return out
}

func locationKey(location string) string {
	return strings.ToLower(strings.TrimSpace(location))
}
