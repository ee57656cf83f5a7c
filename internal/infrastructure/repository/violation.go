package repository

import (
	"context"
	"fmt"

	"parkwatch/internal/domain"
	"parkwatch/internal/infrastructure/database"
)

// ViolationFilter selects one page of violations. Date is YYYY-MM-DD.
type ViolationFilter struct {
	Page   int64
	Limit  int64
	Search string
	Date   string
}

type ViolationRepository struct {
	db Store
}

func NewViolationRepository(db Store) *ViolationRepository {
	return &ViolationRepository{db: db}
}

const violationJoins = `
	  FROM tb_violation v
	  JOIN tb_detection d ON v.ve_detection_idx = d.ve_detection_idx
	  JOIN tb_parking p   ON d.parking_idx = p.parking_idx
	  JOIN tb_camera c    ON d.camera_idx = c.camera_idx`

func (r *ViolationRepository) List(ctx context.Context, f ViolationFilter) (domain.ViolationPage, error) {
	page := domain.ViolationPage{Data: []domain.Violation{}}

	w := &where{}
	if f.Search != "" {
		p := w.arg("%" + f.Search + "%")
		w.add("(d.ve_number LIKE " + p + " OR p.parking_loc LIKE " + p + ")")
	}
	if f.Date != "" {
		w.add("v.created_at::date = " + w.arg(f.Date) + "::date")
	}

	var total int64
	err := r.db.Get(ctx, func(s database.Scanner) error {
		return s.Scan(&total)
	}, `SELECT COUNT(*)`+violationJoins+"\n"+w.String(), w.args...)
	if err != nil {
		return page, fmt.Errorf("count violations: %w", err)
	}

	listStmt := `SELECT v.violation_idx, v.violation_type, v.created_at, d.ve_number, p.parking_loc, c.camera_loc` +
		violationJoins + "\n" + w.String() + `
	 ORDER BY v.created_at DESC
	 LIMIT ` + w.arg(f.Limit) + ` OFFSET ` + w.arg(offset(f.Page, f.Limit))

	err = r.db.Select(ctx, func(s database.Scanner) error {
		var v domain.Violation
		if err := s.Scan(&v.ViolationIdx, &v.ViolationType, &v.ViolationDate, &v.VeNumber, &v.ParkingLoc, &v.CameraLoc); err != nil {
			return err
		}
		page.Data = append(page.Data, v)
		return nil
	}, listStmt, w.args...)
	if err != nil {
		return page, fmt.Errorf("list violations: %w", err)
	}

	pagination := domain.NewPagination(total, f.Page, f.Limit)
	pagination.PageSize = 0
	page.Pagination = pagination
	return page, nil
}

// Get returns one violation with its video location, or database.ErrNotFound.
func (r *ViolationRepository) Get(ctx context.Context, violationIdx int64) (*domain.Violation, error) {
	var v domain.Violation
	err := r.db.Get(ctx, func(s database.Scanner) error {
		return s.Scan(&v.ViolationIdx, &v.ViolationType, &v.ViolationDate, &v.VeNumber, &v.ParkingLoc, &v.CameraLoc, &v.VideoURL)
	}, `SELECT v.violation_idx, v.violation_type, v.created_at, d.ve_number, p.parking_loc, c.camera_loc, s.file_src`+
		violationJoins+`
	  JOIN tb_storage s   ON d.file_idx = s.file_idx
	 WHERE v.violation_idx = $1
	 LIMIT 1`, violationIdx)
	if err != nil {
		return nil, fmt.Errorf("get violation %d: %w", violationIdx, err)
	}
	return &v, nil
}
