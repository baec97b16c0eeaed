package db

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"cyberhr/internal/domain/auth"
	"cyberhr/internal/platform/config"
)

type seedLeaveType struct {
	name        string
	description string
	maxDays     int
}

var defaultLeaveTypes = []seedLeaveType{
	{"Vacaciones", "Licencia anual ordinaria", 14},
	{"Enfermedad", "Licencia por enfermedad con certificado medico", 30},
	{"Personal", "Dias por tramites personales", 6},
	{"Estudio", "Licencia por examen o estudio", 10},
}

func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	for _, lt := range defaultLeaveTypes {
		_, err := pool.Exec(ctx, `
      INSERT INTO leave_types (name, description, max_days_per_year)
      VALUES ($1,$2,$3)
      ON CONFLICT (name) DO NOTHING
    `, lt.name, lt.description, lt.maxDays)
		if err != nil {
			return err
		}
	}

	if strings.TrimSpace(cfg.SeedAdminEmail) == "" {
		return nil
	}
	return ensureAdminUser(ctx, pool, cfg.SeedAdminEmail, cfg.SeedAdminPassword)
}

func ensureAdminUser(ctx context.Context, pool *pgxpool.Pool, email, password string) error {
	var existing string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&existing)
	if err == nil {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx, `
    INSERT INTO users (email, full_name, role, password_hash)
    VALUES ($1,$2,$3,$4)
  `, email, "Administrador", auth.RoleAdmin, hash)
	return err
}
