package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lorrc/helpdesk/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk/internal/core/errors"
	"github.com/lorrc/helpdesk/internal/core/ports"
)

const queryTypeColumns = `id, name, is_active, created_at`

type QueryTypeRepository struct {
	pool *pgxpool.Pool
}

var _ ports.QueryTypeRepository = (*QueryTypeRepository)(nil)

func NewQueryTypeRepository(pool *pgxpool.Pool) ports.QueryTypeRepository {
	return &QueryTypeRepository{pool: pool}
}

func scanQueryType(row pgx.Row) (*domain.QueryType, error) {
	var (
		qt        domain.QueryType
		createdAt time.Time
	)
	if err := row.Scan(&qt.ID, &qt.Name, &qt.IsActive, &createdAt); err != nil {
		return nil, err
	}
	qt.CreatedAt = createdAt.UTC()
	return &qt, nil
}

func (r *QueryTypeRepository) Create(ctx context.Context, queryType *domain.QueryType) (*domain.QueryType, error) {
	sql := `INSERT INTO query_types (name, is_active) VALUES ($1, $2) RETURNING ` + queryTypeColumns

	created, err := scanQueryType(GetDBTX(ctx, r.pool).QueryRow(ctx, sql, queryType.Name, queryType.IsActive))
	if err != nil {
		if _, ok := constraintViolation(err, uniqueViolation); ok {
			return nil, apperrors.ErrQueryTypeExists
		}
		return nil, err
	}
	return created, nil
}

func (r *QueryTypeRepository) GetByID(ctx context.Context, id int64) (*domain.QueryType, error) {
	sql := `SELECT ` + queryTypeColumns + ` FROM query_types WHERE id = $1`

	qt, err := scanQueryType(GetDBTX(ctx, r.pool).QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrQueryTypeNotFound
		}
		return nil, err
	}
	return qt, nil
}

func (r *QueryTypeRepository) List(ctx context.Context) ([]*domain.QueryType, error) {
	sql := `SELECT ` + queryTypeColumns + ` FROM query_types ORDER BY id`

	rows, err := GetDBTX(ctx, r.pool).Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types := make([]*domain.QueryType, 0)
	for rows.Next() {
		qt, err := scanQueryType(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, qt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return types, nil
}

func (r *QueryTypeRepository) SetActive(ctx context.Context, id int64, isActive bool) (*domain.QueryType, error) {
	sql := `UPDATE query_types SET is_active = $2 WHERE id = $1 RETURNING ` + queryTypeColumns

	qt, err := scanQueryType(GetDBTX(ctx, r.pool).QueryRow(ctx, sql, id, isActive))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrQueryTypeNotFound
		}
		return nil, err
	}
	return qt, nil
}
