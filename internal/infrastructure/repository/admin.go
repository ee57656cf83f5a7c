package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"parkwatch/internal/domain"
	"parkwatch/internal/infrastructure/database"
)

type AdminRepository struct {
	db Store
}

func NewAdminRepository(db Store) *AdminRepository {
	return &AdminRepository{db: db}
}

// FindByID returns database.ErrNotFound for an unknown id.
func (r *AdminRepository) FindByID(ctx context.Context, adminID string) (*domain.Admin, error) {
	var (
		a            domain.Admin
		phone, email sql.NullString
		role         sql.NullString
	)
	err := r.db.Get(ctx, func(s database.Scanner) error {
		return s.Scan(&a.AdminID, &a.Name, &phone, &email, &role, &a.HashedPassword, &a.JoinedAt)
	}, `SELECT admin_id, name, phone, email, role, hashed_password, joined_at
	      FROM tb_admin
	     WHERE admin_id = $1
	     LIMIT 1`, adminID)
	if err != nil {
		return nil, fmt.Errorf("find admin %s: %w", adminID, err)
	}

	a.Phone = phone.String
	a.Email = email.String
	a.Role = role.String
	if a.Role == "" {
		a.Role = domain.RoleAdmin
	}
	return &a, nil
}

// Create inserts a new admin. An existing id yields database.ErrConflict.
func (r *AdminRepository) Create(ctx context.Context, a *domain.Admin) error {
	err := r.db.WithTransaction(ctx, func(tx *database.Tx) error {
		err := tx.Get(ctx, func(s database.Scanner) error {
			var id string
			return s.Scan(&id)
		}, `SELECT admin_id FROM tb_admin WHERE admin_id = $1`, a.AdminID)
		switch {
		case err == nil:
			return database.ErrConflict
		case !errors.Is(err, database.ErrNotFound):
			return err
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO tb_admin (admin_id, hashed_password, name, phone, email, role, joined_at)
			 VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
			a.AdminID, a.HashedPassword, a.Name, a.Phone, a.Email, a.Role,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("create admin %s: %w", a.AdminID, err)
	}
	return nil
}
