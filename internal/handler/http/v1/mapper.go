package v1

import (
	"github.com/shenikar/crisis_command_system/internal/audit"
	"github.com/shenikar/crisis_command_system/internal/models"
	"github.com/shenikar/crisis_command_system/internal/orchestrator"
)

// SubmitResultToResponse преобразует результат оркестратора в DTO ответа
func SubmitResultToResponse(result *orchestrator.SubmitResult) *SubmitCrisisResponse {
	return &SubmitCrisisResponse{
		CrisisID:        result.CrisisID,
		Status:          result.Status,
		RiskScore:       result.RiskScore,
		Category:        result.Category,
		PendingCrisisID: result.PendingCrisisID,
	}
}

// StatusToResponse преобразует снимок статуса в DTO ответа
func StatusToResponse(status *models.CrisisStatus) *CrisisStatusResponse {
	return &CrisisStatusResponse{
		CrisisID:    status.CrisisID,
		State:       string(status.State),
		RiskScore:   status.RiskScore,
		Category:    status.Category,
		PlanSummary: status.PlanSummary,
	}
}

// ReportViewToResponse преобразует сводный отчёт в DTO ответа
func ReportViewToResponse(view *models.CrisisReportView) *CrisisReportResponse {
	return &CrisisReportResponse{
		CrisisID:       view.CrisisID,
		Description:    view.Description,
		Location:       view.Location,
		Category:       view.Category,
		RiskScore:      view.RiskScore,
		SubmittedAt:    view.SubmittedAt,
		ApprovalStatus: string(view.ApprovalStatus),
		ApprovalTime:   view.ApprovalTime,
		DispatchTime:   view.DispatchTime,
		NotifiedUnits:  view.NotifiedUnits,
	}
}

// ReportViewsToResponses преобразует слайс отчётов в слайс DTO
func ReportViewsToResponses(views []*models.CrisisReportView) []*CrisisReportResponse {
	responses := make([]*CrisisReportResponse, len(views))
	for i, view := range views {
		responses[i] = ReportViewToResponse(view)
	}
	return responses
}

// AuditEventsToResponses преобразует события журнала в слайс DTO
func AuditEventsToResponses(events []audit.Event) []*AuditEventResponse {
	responses := make([]*AuditEventResponse, len(events))
	for i, e := range events {
		responses[i] = &AuditEventResponse{
			Sequence:  e.Sequence,
			Timestamp: e.Timestamp,
			EventType: e.EventType,
			CrisisID:  e.CrisisID,
			Payload:   e.Payload,
		}
	}
	return responses
}

// MonitorStateToResponse преобразует состояние наблюдения в DTO ответа
func MonitorStateToResponse(state *models.LocationMonitorState) *ScanResponse {
	return &ScanResponse{
		Location:        state.Location,
		Status:          state.LastStatus,
		Reason:          state.LastReason,
		NewsCount:       state.LastNewsCount,
		PendingCrisisID: state.PendingCrisisID,
		LastScanAt:      state.LastScanAt,
		DetectedAt:      state.DetectedAt,
	}
}
