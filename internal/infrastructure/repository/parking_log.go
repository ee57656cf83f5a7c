package repository

import (
	"context"
	"database/sql"
	"fmt"

	"parkwatch/internal/domain"
	"parkwatch/internal/infrastructure/database"
)

// ParkingLogFilter selects one page of entry/exit records. From and To are
// inclusive YYYY-MM-DD dates.
type ParkingLogFilter struct {
	Page       int64
	Limit      int64
	ParkingIdx *int64
	Search     string
	From       string
	To         string
	Ascending  bool
}

type ParkingLogRepository struct {
	db Store
}

func NewParkingLogRepository(db Store) *ParkingLogRepository {
	return &ParkingLogRepository{db: db}
}

func (r *ParkingLogRepository) List(ctx context.Context, f ParkingLogFilter) (domain.ParkingLogPage, error) {
	page := domain.ParkingLogPage{Items: []domain.ParkingLog{}}

	w := &where{}
	if f.ParkingIdx != nil {
		w.add("ps.parking_idx = " + w.arg(*f.ParkingIdx))
	}
	if f.Search != "" {
		p := w.arg("%" + f.Search + "%")
		w.add("(pl.ve_number LIKE " + p + " OR CAST(pl.space_id AS TEXT) LIKE " + p + ")")
	}
	if f.From != "" {
		w.add("pl.entry_at::date >= " + w.arg(f.From) + "::date")
	}
	if f.To != "" {
		w.add("pl.entry_at::date <= " + w.arg(f.To) + "::date")
	}

	var total int64
	countStmt := `SELECT COUNT(*)
	                FROM tb_parking_log pl
	           LEFT JOIN tb_parking_space ps ON ps.space_id = pl.space_id
	              ` + w.String()
	err := r.db.Get(ctx, func(s database.Scanner) error {
		return s.Scan(&total)
	}, countStmt, w.args...)
	if err != nil {
		return page, fmt.Errorf("count parking logs: %w", err)
	}

	dir := "DESC"
	if f.Ascending {
		dir = "ASC"
	}
	listStmt := `SELECT pl.log_idx, pl.ve_number, v.ve_img, pl.space_id, pl.entry_at, pl.exit_at
	               FROM tb_parking_log pl
	          LEFT JOIN tb_vehicle v        ON pl.ve_number = v.ve_number
	          LEFT JOIN tb_parking_space ps ON ps.space_id = pl.space_id
	             ` + w.String() + `
	              ORDER BY pl.entry_at ` + dir + `
	              LIMIT ` + w.arg(f.Limit) + ` OFFSET ` + w.arg(offset(f.Page, f.Limit))

	err = r.db.Select(ctx, func(s database.Scanner) error {
		l, err := scanParkingLog(s)
		if err != nil {
			return err
		}
		page.Items = append(page.Items, l)
		return nil
	}, listStmt, w.args...)
	if err != nil {
		return page, fmt.Errorf("list parking logs: %w", err)
	}

	page.Pagination = domain.NewPagination(total, f.Page, f.Limit)
	return page, nil
}

func scanParkingLog(s database.Scanner) (domain.ParkingLog, error) {
	var (
		l      domain.ParkingLog
		img    sql.NullString
		exitAt sql.NullTime
	)
	if err := s.Scan(&l.LogIdx, &l.VeNumber, &img, &l.SpaceID, &l.EntryAt, &exitAt); err != nil {
		return l, err
	}
	l.VeImg = nullString(img)
	l.ExitAt = nullTime(exitAt)
	return l, nil
}
