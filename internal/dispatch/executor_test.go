package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shenikar/crisis_command_system/internal/audit"
	"github.com/shenikar/crisis_command_system/internal/models"
	"github.com/shenikar/crisis_command_system/internal/risk"
)

func newTestExecutor() (*Executor, *audit.Log) {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	auditLog := audit.NewLog()
	return NewExecutor(auditLog, nil, logger), auditLog
}

func testPlan(crisisID uuid.UUID) models.DispatchPlan {
	return models.DispatchPlan{
		CrisisID: crisisID,
		Units: []models.Unit{
			{Category: risk.CategoryFire, Callsign: "Fire-1", ETA: 6 * time.Minute, ETAMinutes: 6},
		},
	}
}

func TestExecute_EmitsAuditTrail(t *testing.T) {
	executor, auditLog := newTestExecutor()
	crisisID := uuid.New()

	record, err := executor.Execute(context.Background(), testPlan(crisisID))

	require.NoError(t, err)
	assert.Equal(t, crisisID, record.CrisisID)
	assert.False(t, record.DispatchedAt.IsZero())

	assert.Len(t, auditLog.Read(&audit.Filter{EventType: audit.EventUnitDispatched}), 1)
	assert.Len(t, auditLog.Read(&audit.Filter{EventType: audit.EventDispatchCompleted}), 1)
}

func TestExecute_SecondInvocationReturnsIdenticalRecord(t *testing.T) {
	executor, auditLog := newTestExecutor()
	crisisID := uuid.New()
	plan := testPlan(crisisID)

	first, err := executor.Execute(context.Background(), plan)
	require.NoError(t, err)
	second, err := executor.Execute(context.Background(), plan)
	require.NoError(t, err)

	// Записи должны быть идентичны вплоть до сериализации
	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, firstJSON, secondJSON)

	// И только один пакет событий UNIT_DISPATCHED
	assert.Len(t, auditLog.Read(&audit.Filter{EventType: audit.EventUnitDispatched}), 1)
	assert.Len(t, auditLog.Read(&audit.Filter{EventType: audit.EventDispatchCompleted}), 1)
}

func TestExecute_ConcurrentDuplicatesDispatchOnce(t *testing.T) {
	executor, auditLog := newTestExecutor()
	crisisID := uuid.New()
	plan := testPlan(crisisID)

	const n = 50
	records := make([]*models.DispatchRecord, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			record, err := executor.Execute(context.Background(), plan)
			assert.NoError(t, err)
			records[i] = record
		}(i)
	}
	wg.Wait()

	// Все вызовы вернули одну и ту же запись
	for i := 1; i < n; i++ {
		assert.Equal(t, records[0], records[i])
	}
	assert.Len(t, auditLog.Read(&audit.Filter{EventType: audit.EventUnitDispatched}), 1)
}

func TestExecute_SkippedCategoriesAreAudited(t *testing.T) {
	executor, auditLog := newTestExecutor()
	crisisID := uuid.New()

	plan := models.DispatchPlan{
		CrisisID: crisisID,
		Skipped:  []string{risk.CategoryEarthquake},
	}

	record, err := executor.Execute(context.Background(), plan)

	require.NoError(t, err)
	assert.Empty(t, record.Units)
	assert.Len(t, auditLog.Read(&audit.Filter{EventType: audit.EventDispatchSkipped}), 1)
	assert.Empty(t, auditLog.Read(&audit.Filter{EventType: audit.EventUnitDispatched}))
}

func TestExecute_RecordMutationDoesNotLeak(t *testing.T) {
	executor, _ := newTestExecutor()
	crisisID := uuid.New()

	first, err := executor.Execute(context.Background(), testPlan(crisisID))
	require.NoError(t, err)

	// Мутация возвращённой копии не должна затрагивать хранимую запись
	first.Units[0].Callsign = "tampered"

	second, ok := executor.Record(crisisID)
	require.True(t, ok)
	assert.Equal(t, "Fire-1", second.Units[0].Callsign)
}
