package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lorrc/helpdesk/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk/internal/core/errors"
	"github.com/lorrc/helpdesk/internal/core/ports"
	"github.com/lorrc/helpdesk/internal/core/utils"
)

const userColumns = `id, name, email, role, is_active, created_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

var _ ports.UserRepository = (*UserRepository)(nil)

func NewUserRepository(pool *pgxpool.Pool) ports.UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		id        pgtype.UUID
		role      string
		createdAt time.Time
		u         domain.User
	)
	if err := row.Scan(&id, &u.Name, &u.Email, &role, &u.IsActive, &createdAt); err != nil {
		return nil, err
	}
	u.ID = id.Bytes
	u.Role = domain.Role(role)
	u.CreatedAt = createdAt.UTC()
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	sql := `
		INSERT INTO users (id, name, email, role, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + userColumns

	created, err := scanUser(GetDBTX(ctx, r.pool).QueryRow(ctx, sql,
		utils.ToUUID(user.ID), user.Name, user.Email, string(user.Role), user.IsActive, user.CreatedAt,
	))
	if err != nil {
		if _, ok := constraintViolation(err, uniqueViolation); ok {
			return nil, apperrors.ErrUserExists
		}
		return nil, err
	}
	return created, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	sql := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(GetDBTX(ctx, r.pool).QueryRow(ctx, sql, utils.ToUUID(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) List(ctx context.Context, role *domain.Role) ([]*domain.User, error) {
	sql := `SELECT ` + userColumns + ` FROM users WHERE ($1::text IS NULL OR role = $1::text) ORDER BY name, id`

	var roleArg pgtype.Text
	if role != nil {
		roleArg = pgtype.Text{String: string(*role), Valid: true}
	}

	rows, err := GetDBTX(ctx, r.pool).Query(ctx, sql, roleArg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) SetActive(ctx context.Context, id uuid.UUID, isActive bool) (*domain.User, error) {
	sql := `UPDATE users SET is_active = $2 WHERE id = $1 RETURNING ` + userColumns

	user, err := scanUser(GetDBTX(ctx, r.pool).QueryRow(ctx, sql, utils.ToUUID(id), isActive))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, user *domain.User) (*domain.User, error) {
	sql := `UPDATE users SET name = $2, email = $3 WHERE id = $1 RETURNING ` + userColumns

	updated, err := scanUser(GetDBTX(ctx, r.pool).QueryRow(ctx, sql, utils.ToUUID(user.ID), user.Name, user.Email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		if _, ok := constraintViolation(err, uniqueViolation); ok {
			return nil, apperrors.ErrUserExists
		}
		return nil, err
	}
	return updated, nil
}

func (r *UserRepository) CountByRole(ctx context.Context) (domain.UserTotals, error) {
	const sql = `SELECT role, COUNT(*) FROM users GROUP BY role`

	rows, err := GetDBTX(ctx, r.pool).Query(ctx, sql)
	if err != nil {
		return domain.UserTotals{}, err
	}
	defer rows.Close()

	var totals domain.UserTotals
	for rows.Next() {
		var (
			role  string
			count int
		)
		if err := rows.Scan(&role, &count); err != nil {
			return domain.UserTotals{}, err
		}
		totals.Total += count
		switch domain.Role(role) {
		case domain.RoleEmployee:
			totals.Employees = count
		case domain.RoleSpecialist:
			totals.Specialists = count
		case domain.RoleAdmin:
			totals.Admins = count
		}
	}
	if err := rows.Err(); err != nil {
		return domain.UserTotals{}, err
	}
	return totals, nil
}
