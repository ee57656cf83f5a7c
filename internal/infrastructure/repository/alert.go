package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"parkwatch/internal/domain"
	"parkwatch/internal/infrastructure/database"
)

type AlertRepository struct {
	db Store
}

func NewAlertRepository(db Store) *AlertRepository {
	return &AlertRepository{db: db}
}

// List returns the admin's alerts, newest first.
func (r *AlertRepository) List(ctx context.Context, adminID string, unreadOnly bool) ([]domain.Alert, error) {
	w := &where{}
	w.add("admin_id = " + w.arg(adminID))
	if unreadOnly {
		w.add("read_at IS NULL")
	}

	alerts := []domain.Alert{}
	err := r.db.Select(ctx, func(s database.Scanner) error {
		var (
			a            domain.Alert
			violationIdx sql.NullInt64
			readAt       sql.NullTime
			processedAt  sql.NullTime
			status       sql.NullString
			content      sql.NullString
		)
		if err := s.Scan(
			&a.AlertIdx, &violationIdx, &a.AlertType, &a.AlertMsg, &a.SentAt, &a.IsSuccess,
			&a.AdminID, &readAt, &status, &content, &processedAt,
		); err != nil {
			return err
		}
		a.ViolationIdx = nullInt(violationIdx)
		a.ReadAt = nullTime(readAt)
		a.AdminStatus = nullString(status)
		a.AdminContent = nullString(content)
		a.ProcessedAt = nullTime(processedAt)
		alerts = append(alerts, a)
		return nil
	}, `SELECT alert_idx, violation_idx, alert_type, alert_msg, sent_at, is_success,
	           admin_id, read_at, admin_status, admin_content, processed_at
	      FROM tb_alert
	    `+w.String()+`
	     ORDER BY sent_at DESC`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list alerts for %s: %w", adminID, err)
	}
	return alerts, nil
}

// Patch applies p to one alert. An empty patch is rejected by the caller; an
// unknown id yields database.ErrNotFound.
func (r *AlertRepository) Patch(ctx context.Context, alertIdx int64, p domain.AlertPatch) error {
	var sets []string
	w := &where{}

	if p.Read {
		sets = append(sets, "read_at = NOW()")
	}
	if p.AdminStatus != nil {
		sets = append(sets, "admin_status = "+w.arg(*p.AdminStatus))
	}
	if p.AdminContent != nil {
		sets = append(sets, "admin_content = "+w.arg(*p.AdminContent))
	}
	if p.Processed() {
		sets = append(sets, "processed_at = NOW()")
	}
	if len(sets) == 0 {
		return fmt.Errorf("patch alert %d: nothing to update", alertIdx)
	}

	stmt := `UPDATE tb_alert SET ` + strings.Join(sets, ", ") + ` WHERE alert_idx = ` + w.arg(alertIdx)
	n, err := r.db.Exec(ctx, stmt, w.args...)
	if err != nil {
		return fmt.Errorf("patch alert %d: %w", alertIdx, err)
	}
	if n == 0 {
		return fmt.Errorf("patch alert %d: %w", alertIdx, database.ErrNotFound)
	}
	return nil
}
