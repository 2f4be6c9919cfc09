package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
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

const queryColumns = `id, problem_number, query_type_id, title, description, status,
	creator_id, assignee_id, version, created_at, updated_at, completed_at`

type QueryRepository struct {
	pool *pgxpool.Pool
}

var _ ports.QueryRepository = (*QueryRepository)(nil)

func NewQueryRepository(pool *pgxpool.Pool) ports.QueryRepository {
	return &QueryRepository{pool: pool}
}

func scanQuery(row pgx.Row) (*domain.Query, error) {
	var (
		id          pgtype.UUID
		creatorID   pgtype.UUID
		assigneeID  pgtype.UUID
		status      string
		createdAt   time.Time
		updatedAt   time.Time
		completedAt pgtype.Timestamptz
		q           domain.Query
	)

	err := row.Scan(
		&id, &q.ProblemNumber, &q.QueryTypeID, &q.Title, &q.Description, &status,
		&creatorID, &assigneeID, &q.Version, &createdAt, &updatedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	q.ID = id.Bytes
	q.CreatorID = creatorID.Bytes
	q.AssigneeID = utils.FromNullUUID(assigneeID)
	q.Status = domain.QueryStatus(status)
	q.CreatedAt = createdAt.UTC()
	q.UpdatedAt = updatedAt.UTC()
	q.CompletedAt = utils.FromNullTime(completedAt)
	return &q, nil
}

// Create inserts the query. Postgres issues the problem number from a sequence.
func (r *QueryRepository) Create(ctx context.Context, query *domain.Query) (*domain.Query, error) {
	sql := `
		INSERT INTO queries (id, query_type_id, title, description, status, creator_id,
			assignee_id, version, created_at, updated_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 1, $8, $9, $10)
		RETURNING ` + queryColumns

	row := GetDBTX(ctx, r.pool).QueryRow(ctx, sql,
		utils.ToUUID(query.ID),
		query.QueryTypeID,
		query.Title,
		query.Description,
		string(query.Status),
		utils.ToUUID(query.CreatorID),
		utils.ToNullUUID(query.AssigneeID),
		query.CreatedAt,
		query.UpdatedAt,
		utils.ToNullTime(query.CompletedAt),
	)

	created, err := scanQuery(row)
	if err != nil {
		if constraint, ok := constraintViolation(err, foreignKeyViolation); ok {
			if strings.Contains(constraint, "query_type") {
				return nil, apperrors.ErrQueryTypeNotFound
			}
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}
	return created, nil
}

func (r *QueryRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Query, error) {
	sql := `SELECT ` + queryColumns + ` FROM queries WHERE id = $1`

	query, err := scanQuery(GetDBTX(ctx, r.pool).QueryRow(ctx, sql, utils.ToUUID(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrQueryNotFound
		}
		return nil, err
	}
	return query, nil
}

// List returns matching queries ordered by problem number, newest first.
func (r *QueryRepository) List(ctx context.Context, filter ports.QueryFilter) ([]*domain.Query, error) {
	var (
		conditions []string
		args       []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if filter.Status != nil {
		add("status", string(*filter.Status))
	}
	if filter.QueryTypeID != nil {
		add("query_type_id", *filter.QueryTypeID)
	}
	if filter.CreatorID != nil {
		add("creator_id", utils.ToUUID(*filter.CreatorID))
	}
	if filter.AssigneeID != nil {
		add("assignee_id", utils.ToUUID(*filter.AssigneeID))
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + queryColumns + ` FROM queries`)
	if len(conditions) > 0 {
		sb.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	sb.WriteString(" ORDER BY problem_number DESC")
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		fmt.Fprintf(&sb, " OFFSET $%d", len(args))
	}

	rows, err := GetDBTX(ctx, r.pool).Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	queries := make([]*domain.Query, 0)
	for rows.Next() {
		q, err := scanQuery(rows)
		if err != nil {
			return nil, err
		}
		queries = append(queries, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return queries, nil
}

// CompareAndSwap writes the mutable lifecycle fields only if the stored
// version still equals expectedVersion.
func (r *QueryRepository) CompareAndSwap(ctx context.Context, expectedVersion int64, query *domain.Query) (*domain.Query, error) {
	sql := `
		UPDATE queries
		SET status = $3, assignee_id = $4, updated_at = $5, completed_at = $6, version = version + 1
		WHERE id = $1 AND version = $2
		RETURNING ` + queryColumns

	db := GetDBTX(ctx, r.pool)
	updated, err := scanQuery(db.QueryRow(ctx, sql,
		utils.ToUUID(query.ID),
		expectedVersion,
		string(query.Status),
		utils.ToNullUUID(query.AssigneeID),
		query.UpdatedAt,
		utils.ToNullTime(query.CompletedAt),
	))
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	var exists bool
	if err := db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM queries WHERE id = $1)`, utils.ToUUID(query.ID)).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperrors.ErrQueryNotFound
	}
	return nil, apperrors.ErrConflict
}
