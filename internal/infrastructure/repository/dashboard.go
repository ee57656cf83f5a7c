package repository

import (
	"context"
	"database/sql"
	"fmt"

	"parkwatch/internal/domain"
	"parkwatch/internal/infrastructure/database"
)

// DashboardRepository serves the main-page widgets. Every method takes an
// optional parking lot filter.
type DashboardRepository struct {
	db Store
}

func NewDashboardRepository(db Store) *DashboardRepository {
	return &DashboardRepository{db: db}
}

func (r *DashboardRepository) Summary(ctx context.Context, parkingIdx *int64) (domain.Summary, error) {
	var s domain.Summary

	w := &where{}
	if parkingIdx != nil {
		w.add("parking_idx = " + w.arg(*parkingIdx))
	}
	stmt := `SELECT COUNT(*) FILTER (WHERE space_type = 'disabled'),
	                COUNT(*) FILTER (WHERE space_type = 'disabled' AND is_occupied),
	                COUNT(*) FILTER (WHERE space_type = 'general'),
	                COUNT(*) FILTER (WHERE space_type = 'general' AND is_occupied)
	           FROM tb_parking_space
	         ` + w.String()

	err := r.db.Get(ctx, func(sc database.Scanner) error {
		return sc.Scan(
			&s.DisabledParking.Total, &s.DisabledParking.Current,
			&s.GeneralParking.Total, &s.GeneralParking.Current,
		)
	}, stmt, w.args...)
	if err != nil {
		return s, fmt.Errorf("space summary: %w", err)
	}

	err = r.db.Get(ctx, func(sc database.Scanner) error {
		return sc.Scan(&s.TodayViolations)
	}, `SELECT COUNT(*) FROM tb_violation WHERE created_at::date = CURRENT_DATE`)
	if err != nil {
		return s, fmt.Errorf("today violations: %w", err)
	}
	return s, nil
}

func (r *DashboardRepository) ParkingStatus(ctx context.Context, parkingIdx *int64) ([]domain.ParkingSpace, error) {
	w := &where{}
	if parkingIdx != nil {
		w.add("parking_idx = " + w.arg(*parkingIdx))
	}
	stmt := `SELECT space_id, space_type, is_occupied, ve_number
	           FROM tb_parking_space
	         ` + w.String() + `
	          ORDER BY space_id`

	spaces := []domain.ParkingSpace{}
	err := r.db.Select(ctx, func(s database.Scanner) error {
		var (
			sp domain.ParkingSpace
			ve sql.NullString
		)
		if err := s.Scan(&sp.SpaceID, &sp.SpaceType, &sp.IsOccupied, &ve); err != nil {
			return err
		}
		sp.VeNumber = nullString(ve)
		spaces = append(spaces, sp)
		return nil
	}, stmt, w.args...)
	if err != nil {
		return nil, fmt.Errorf("parking status: %w", err)
	}
	return spaces, nil
}

// RecentViolations returns the latest five violations with the status of
// their most recent alert.
func (r *DashboardRepository) RecentViolations(ctx context.Context, parkingIdx *int64) ([]domain.RecentViolation, error) {
	w := &where{}
	if parkingIdx != nil {
		w.add("d.parking_idx = " + w.arg(*parkingIdx))
	}
	stmt := `SELECT v.violation_idx, d.ve_number, p.parking_loc, v.violation_type,
	                v.created_at, a.admin_status
	           FROM tb_violation v
	           JOIN tb_detection d ON v.ve_detection_idx = d.ve_detection_idx
	           JOIN tb_parking p   ON d.parking_idx = p.parking_idx
	      LEFT JOIN tb_alert a     ON a.violation_idx = v.violation_idx
	                              AND a.sent_at = (
	                                  SELECT MAX(a2.sent_at) FROM tb_alert a2 WHERE a2.violation_idx = v.violation_idx
	                              )
	         ` + w.String() + `
	          ORDER BY v.created_at DESC
	          LIMIT 5`

	out := []domain.RecentViolation{}
	err := r.db.Select(ctx, func(s database.Scanner) error {
		var (
			v      domain.RecentViolation
			status sql.NullString
		)
		if err := s.Scan(&v.ViolationIdx, &v.VeNumber, &v.ParkingLoc, &v.ViolationType, &v.ViolationDate, &status); err != nil {
			return err
		}
		v.AdminStatus = nullString(status)
		out = append(out, v)
		return nil
	}, stmt, w.args...)
	if err != nil {
		return nil, fmt.Errorf("recent violations: %w", err)
	}
	return out, nil
}

// RecentLogs returns the latest five entry/exit records.
func (r *DashboardRepository) RecentLogs(ctx context.Context, parkingIdx *int64) ([]domain.ParkingLog, error) {
	w := &where{}
	if parkingIdx != nil {
		w.add("ps.parking_idx = " + w.arg(*parkingIdx))
	}
	stmt := `SELECT pl.log_idx, pl.ve_number, v.ve_img, pl.space_id, pl.entry_at, pl.exit_at
	           FROM tb_parking_log pl
	      LEFT JOIN tb_parking_space ps ON ps.space_id = pl.space_id
	      LEFT JOIN tb_vehicle v        ON pl.ve_number = v.ve_number
	         ` + w.String() + `
	          ORDER BY pl.entry_at DESC
	          LIMIT 5`

	logs := []domain.ParkingLog{}
	err := r.db.Select(ctx, func(s database.Scanner) error {
		l, err := scanParkingLog(s)
		if err != nil {
			return err
		}
		logs = append(logs, l)
		return nil
	}, stmt, w.args...)
	if err != nil {
		return nil, fmt.Errorf("recent parking logs: %w", err)
	}
	return logs, nil
}

// SummaryByParking returns per-lot occupancy, ordered by lot.
func (r *DashboardRepository) SummaryByParking(ctx context.Context, parkingIdx *int64) ([]domain.LotSummary, error) {
	w := &where{}
	if parkingIdx != nil {
		w.add("p.parking_idx = " + w.arg(*parkingIdx))
	}
	stmt := `SELECT p.parking_idx, p.parking_loc,
	                COUNT(s.space_id) FILTER (WHERE s.space_type = 'general'),
	                COUNT(s.space_id) FILTER (WHERE s.space_type = 'general' AND s.is_occupied),
	                COUNT(s.space_id) FILTER (WHERE s.space_type = 'disabled'),
	                COUNT(s.space_id) FILTER (WHERE s.space_type = 'disabled' AND s.is_occupied)
	           FROM tb_parking p
	      LEFT JOIN tb_parking_space s ON s.parking_idx = p.parking_idx
	         ` + w.String() + `
	          GROUP BY p.parking_idx, p.parking_loc
	          ORDER BY p.parking_idx`

	out := []domain.LotSummary{}
	err := r.db.Select(ctx, func(s database.Scanner) error {
		var (
			idx            int64
			loc            string
			tg, og, td, od int64
		)
		if err := s.Scan(&idx, &loc, &tg, &og, &td, &od); err != nil {
			return err
		}
		out = append(out, domain.NewLotSummary(idx, loc, tg, og, td, od))
		return nil
	}, stmt, w.args...)
	if err != nil {
		return nil, fmt.Errorf("summary by parking: %w", err)
	}
	return out, nil
}
