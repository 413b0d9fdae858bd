package report

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shenikar/crisis_command_system/internal/models"
)

func TestRender_ExecutedCrisis(t *testing.T) {
	renderer, err := NewTextRenderer()
	require.NoError(t, err)

	submitted := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	approved := submitted.Add(3 * time.Minute)
	dispatched := submitted.Add(4 * time.Minute)

	out, err := renderer.Render(&models.CrisisReportView{
		CrisisID:       uuid.New(),
		Description:    "Massive fire at the chemical plant",
		Location:       "Chennai",
		Category:       "Fire",
		RiskScore:      4.5,
		SubmittedAt:    submitted,
		ApprovalStatus: models.StateExecuted,
		ApprovalTime:   &approved,
		DispatchTime:   &dispatched,
		NotifiedUnits:  []string{"Fire-1", "Fire-2"},
	})

	require.NoError(t, err)
	text := string(out)
	assert.Contains(t, text, "CRISIS INCIDENT REPORT")
	assert.Contains(t, text, "Massive fire at the chemical plant")
	assert.Contains(t, text, "Risk Score:      4.50")
	assert.Contains(t, text, "- Fire-1")
	assert.Contains(t, text, "- Fire-2")
	assert.Contains(t, text, "Approval Time:")
	assert.Contains(t, text, "Dispatch Time:")
}

func TestRender_PendingCrisisWithoutUnits(t *testing.T) {
	renderer, err := NewTextRenderer()
	require.NoError(t, err)

	out, err := renderer.Render(&models.CrisisReportView{
		CrisisID:       uuid.New(),
		Description:    "Severe flooding detected in Chennai",
		Location:       "Chennai",
		Category:       "Flood",
		RiskScore:      3.9,
		SubmittedAt:    time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		ApprovalStatus: models.StateAwaitingApproval,
		NotifiedUnits:  []string{},
	})

	require.NoError(t, err)
	text := string(out)
	assert.Contains(t, text, "AWAITING_APPROVAL")
	assert.Contains(t, text, "(none)")
	assert.NotContains(t, text, "Approval Time:")
}
