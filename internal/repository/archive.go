package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shenikar/crisis_command_system/internal/models"
)

// CrisisArchive - долговременное хранилище отчётов о кризисах в PostgreSQL.
// Оперативным состоянием владеет оркестратор; архив хранит историю,
// переживающую перезапуск процесса.
type CrisisArchive struct {
	db *pgxpool.Pool
}

// NewCrisisArchive создает архив отчётов
func NewCrisisArchive(db *pgxpool.Pool) *CrisisArchive {
	return &CrisisArchive{db: db}
}

// SaveReport сохраняет новый отчёт о кризисе
func (a *CrisisArchive) SaveReport(ctx context.Context, report *models.CrisisReport) error {
	query := `
		INSERT INTO crisis_reports (id, description, location, category, severity, risk_score, pre_authorized, submitted_at, approval_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING;
	`
	_, err := a.db.Exec(ctx, query,
		report.ID,
		report.Description,
		report.Location,
		report.Category,
		report.Severity,
		report.RiskScore,
		report.PreAuthorized,
		report.SubmittedAt,
		string(models.StateAwaitingApproval),
	)
	if err != nil {
		return fmt.Errorf("failed to save crisis report: %w", err)
	}
	return nil
}

// UpdateOutcome фиксирует исход кризиса
func (a *CrisisArchive) UpdateOutcome(ctx context.Context, crisisID uuid.UUID, state models.DecisionState, approvalTime, dispatchTime *time.Time, units []string) error {
	if units == nil {
		units = []string{}
	}
	query := `
		UPDATE crisis_reports SET
			approval_status = $1,
			approval_time = $2,
			dispatch_time = $3,
			notified_units = $4
		WHERE id = $5;
	`
	cmdTag, err := a.db.Exec(ctx, query, string(state), approvalTime, dispatchTime, units, crisisID)
	if err != nil {
		return fmt.Errorf("failed to update crisis outcome: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("crisis report with id %s not found for outcome update", crisisID)
	}
	return nil
}

// GetReport возвращает отчёт по id кризиса
func (a *CrisisArchive) GetReport(ctx context.Context, crisisID uuid.UUID) (*models.CrisisReportView, error) {
	query := `
		SELECT id, description, location, category, risk_score, submitted_at, approval_status, approval_time, dispatch_time, notified_units
		FROM crisis_reports
		WHERE id = $1;
	`
	view := &models.CrisisReportView{}
	var status string
	err := a.db.QueryRow(ctx, query, crisisID).Scan(
		&view.CrisisID,
		&view.Description,
		&view.Location,
		&view.Category,
		&view.RiskScore,
		&view.SubmittedAt,
		&status,
		&view.ApprovalTime,
		&view.DispatchTime,
		&view.NotifiedUnits,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("crisis report with id %s not found", crisisID)
		}
		return nil, fmt.Errorf("failed to get crisis report: %w", err)
	}
	view.ApprovalStatus = models.DecisionState(status)
	if view.NotifiedUnits == nil {
		view.NotifiedUnits = []string{}
	}
	return view, nil
}

// ListReports возвращает отчёты, упорядоченные по времени подачи
func (a *CrisisArchive) ListReports(ctx context.Context) ([]*models.CrisisReportView, error) {
	query := `
		SELECT id, description, location, category, risk_score, submitted_at, approval_status, approval_time, dispatch_time, notified_units
		FROM crisis_reports
		ORDER BY submitted_at ASC;
	`
	rows, err := a.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list crisis reports: %w", err)
	}
	defer rows.Close()

	views := make([]*models.CrisisReportView, 0)
	for rows.Next() {
		view := &models.CrisisReportView{}
		var status string
		err := rows.Scan(
			&view.CrisisID,
			&view.Description,
			&view.Location,
			&view.Category,
			&view.RiskScore,
			&view.SubmittedAt,
			&status,
			&view.ApprovalTime,
			&view.DispatchTime,
			&view.NotifiedUnits,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan crisis report row: %w", err)
		}
		view.ApprovalStatus = models.DecisionState(status)
		if view.NotifiedUnits == nil {
			view.NotifiedUnits = []string{}
		}
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration: %w", err)
	}
	return views, nil
}
