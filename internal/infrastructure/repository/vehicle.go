package repository

import (
	"context"
	"fmt"

	"parkwatch/internal/domain"
)

type VehicleRepository struct {
	db Store
}

func NewVehicleRepository(db Store) *VehicleRepository {
	return &VehicleRepository{db: db}
}

func (r *VehicleRepository) Insert(ctx context.Context, v domain.Vehicle) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO tb_vehicle (ve_number, ve_img) VALUES ($1, $2)`,
		v.PlateNumber, v.ImageURL,
	)
	if err != nil {
		return fmt.Errorf("insert vehicle %s: %w", v.PlateNumber, err)
	}
	return nil
}
