package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"parkwatch/internal/domain"
	"parkwatch/internal/infrastructure/database"
)

type ParkingRepository struct {
	db Store
}

func NewParkingRepository(db Store) *ParkingRepository {
	return &ParkingRepository{db: db}
}

// Lots lists parking lots. tb_parking has no district column, so a numeric
// district code selects the lot with that index; anything else lists all.
func (r *ParkingRepository) Lots(ctx context.Context, district string) ([]domain.ParkingLot, error) {
	w := &where{}
	if code, err := strconv.ParseInt(strings.TrimSpace(district), 10, 64); err == nil {
		w.add("parking_idx = " + w.arg(code))
	}
	stmt := `SELECT parking_idx, parking_loc FROM tb_parking ` + w.String() + ` ORDER BY parking_idx`

	lots := []domain.ParkingLot{}
	err := r.db.Select(ctx, func(s database.Scanner) error {
		var l domain.ParkingLot
		if err := s.Scan(&l.ParkingIdx, &l.ParkingLoc); err != nil {
			return err
		}
		lots = append(lots, l)
		return nil
	}, stmt, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list parking lots: %w", err)
	}
	return lots, nil
}

// Location returns the lot's display name, or database.ErrNotFound.
func (r *ParkingRepository) Location(ctx context.Context, parkingIdx int64) (string, error) {
	var loc string
	err := r.db.Get(ctx, func(s database.Scanner) error {
		return s.Scan(&loc)
	}, `SELECT parking_loc FROM tb_parking WHERE parking_idx = $1`, parkingIdx)
	if err != nil {
		return "", fmt.Errorf("parking location %d: %w", parkingIdx, err)
	}
	return loc, nil
}
