// Package memory provides an in-memory ticket store used for tests and
// ephemeral environments.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/lorrc/helpdesk/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk/internal/core/errors"
	"github.com/lorrc/helpdesk/internal/core/ports"
)

var (
	_ ports.QueryRepository     = (*QueryRepository)(nil)
	_ ports.UserRepository      = (*UserRepository)(nil)
	_ ports.QueryTypeRepository = (*QueryTypeRepository)(nil)
	_ ports.TransactionManager  = (*Store)(nil)
)

// queryRecord guards a single query. Compare-and-set holds only this lock.
type queryRecord struct {
	mu    sync.Mutex
	query *domain.Query
}

// Store holds every entity in process memory. The index locks protect map
// membership only; record contents are guarded per record.
type Store struct {
	queriesMu     sync.RWMutex
	queries       map[uuid.UUID]*queryRecord
	problemNumber int64

	usersMu sync.RWMutex
	users   map[uuid.UUID]*domain.User

	typesMu    sync.RWMutex
	queryTypes map[int64]*domain.QueryType
	nextTypeID int64
}

// NewStore returns an empty store seeded with the default query type catalog.
func NewStore() *Store {
	s := &Store{
		queries:    make(map[uuid.UUID]*queryRecord),
		users:      make(map[uuid.UUID]*domain.User),
		queryTypes: make(map[int64]*domain.QueryType),
	}
	for _, name := range domain.DefaultQueryTypes {
		qt, _ := domain.NewQueryType(name)
		s.nextTypeID++
		qt.ID = s.nextTypeID
		s.queryTypes[qt.ID] = qt
	}
	return s
}

func (s *Store) Queries() *QueryRepository       { return &QueryRepository{store: s} }
func (s *Store) Users() *UserRepository           { return &UserRepository{store: s} }
func (s *Store) QueryTypes() *QueryTypeRepository { return &QueryTypeRepository{store: s} }

// WithTransaction runs fn directly. Each repository call is already atomic.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *Store) WithReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// QueryRepository is the in-memory ports.QueryRepository.
type QueryRepository struct {
	store *Store
}

func (r *QueryRepository) Create(ctx context.Context, query *domain.Query) (*domain.Query, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.queriesMu.Lock()
	defer s.queriesMu.Unlock()

	if _, exists := s.queries[query.ID]; exists {
		return nil, apperrors.ErrConflict
	}

	s.problemNumber++
	stored := query.Clone()
	stored.ProblemNumber = s.problemNumber
	stored.Version = 1
	s.queries[stored.ID] = &queryRecord{query: stored}

	return stored.Clone(), nil
}

func (r *QueryRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Query, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rec, ok := r.store.record(id)
	if !ok {
		return nil, apperrors.ErrQueryNotFound
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.query.Clone(), nil
}

func (r *QueryRepository) List(ctx context.Context, filter ports.QueryFilter) ([]*domain.Query, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.queriesMu.RLock()
	records := make([]*queryRecord, 0, len(s.queries))
	for _, rec := range s.queries {
		records = append(records, rec)
	}
	s.queriesMu.RUnlock()

	matched := make([]*domain.Query, 0, len(records))
	for _, rec := range records {
		rec.mu.Lock()
		q := rec.query.Clone()
		rec.mu.Unlock()

		if filter.Matches(q) {
			matched = append(matched, q)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].ProblemNumber > matched[j].ProblemNumber
	})

	return paginate(matched, filter.Limit, filter.Offset), nil
}

func (r *QueryRepository) CompareAndSwap(ctx context.Context, expectedVersion int64, query *domain.Query) (*domain.Query, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rec, ok := r.store.record(query.ID)
	if !ok {
		return nil, apperrors.ErrQueryNotFound
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.query.Version != expectedVersion {
		return nil, apperrors.ErrConflict
	}

	stored := query.Clone()
	// Identity fields never change after creation.
	stored.ProblemNumber = rec.query.ProblemNumber
	stored.CreatorID = rec.query.CreatorID
	stored.CreatedAt = rec.query.CreatedAt
	stored.Version = expectedVersion + 1
	rec.query = stored

	return stored.Clone(), nil
}

func (s *Store) record(id uuid.UUID) (*queryRecord, bool) {
	s.queriesMu.RLock()
	defer s.queriesMu.RUnlock()
	rec, ok := s.queries[id]
	return rec, ok
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return []T{}
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// UserRepository is the in-memory ports.UserRepository.
type UserRepository struct {
	store *Store
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return nil, apperrors.ErrUserExists
		}
	}

	stored := *user
	s.users[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

func (r *UserRepository) List(ctx context.Context, role *domain.Role) ([]*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()

	users := make([]*domain.User, 0, len(s.users))
	for _, u := range s.users {
		if role != nil && u.Role != *role {
			continue
		}
		out := *u
		users = append(users, &out)
	}

	sort.Slice(users, func(i, j int) bool {
		if users[i].Name != users[j].Name {
			return users[i].Name < users[j].Name
		}
		return users[i].ID.String() < users[j].ID.String()
	})
	return users, nil
}

func (r *UserRepository) SetActive(ctx context.Context, id uuid.UUID, isActive bool) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	u.IsActive = isActive
	out := *u
	return &out, nil
}

// UpdateProfile changes name and email only; role and active flag are kept.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *domain.User) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	u, ok := s.users[user.ID]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	for id, other := range s.users {
		if id != user.ID && strings.EqualFold(other.Email, user.Email) {
			return nil, apperrors.ErrUserExists
		}
	}
	u.Name = user.Name
	u.Email = user.Email
	out := *u
	return &out, nil
}

func (r *UserRepository) CountByRole(ctx context.Context) (domain.UserTotals, error) {
	if err := ctx.Err(); err != nil {
		return domain.UserTotals{}, err
	}

	s := r.store
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()

	var totals domain.UserTotals
	for _, u := range s.users {
		totals.Total++
		switch u.Role {
		case domain.RoleEmployee:
			totals.Employees++
		case domain.RoleSpecialist:
			totals.Specialists++
		case domain.RoleAdmin:
			totals.Admins++
		}
	}
	return totals, nil
}

// QueryTypeRepository is the in-memory ports.QueryTypeRepository.
type QueryTypeRepository struct {
	store *Store
}

func (r *QueryTypeRepository) Create(ctx context.Context, queryType *domain.QueryType) (*domain.QueryType, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.typesMu.Lock()
	defer s.typesMu.Unlock()

	for _, existing := range s.queryTypes {
		if strings.EqualFold(existing.Name, queryType.Name) {
			return nil, apperrors.ErrQueryTypeExists
		}
	}

	s.nextTypeID++
	stored := *queryType
	stored.ID = s.nextTypeID
	s.queryTypes[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (r *QueryTypeRepository) GetByID(ctx context.Context, id int64) (*domain.QueryType, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.typesMu.RLock()
	defer s.typesMu.RUnlock()

	qt, ok := s.queryTypes[id]
	if !ok {
		return nil, apperrors.ErrQueryTypeNotFound
	}
	out := *qt
	return &out, nil
}

func (r *QueryTypeRepository) List(ctx context.Context) ([]*domain.QueryType, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.typesMu.RLock()
	defer s.typesMu.RUnlock()

	types := make([]*domain.QueryType, 0, len(s.queryTypes))
	for _, qt := range s.queryTypes {
		out := *qt
		types = append(types, &out)
	}
	sort.Slice(types, func(i, j int) bool { return types[i].ID < types[j].ID })
	return types, nil
}

func (r *QueryTypeRepository) SetActive(ctx context.Context, id int64, isActive bool) (*domain.QueryType, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := r.store
	s.typesMu.Lock()
	defer s.typesMu.Unlock()

	qt, ok := s.queryTypes[id]
	if !ok {
		return nil, apperrors.ErrQueryTypeNotFound
	}
	qt.IsActive = isActive
	out := *qt
	return &out, nil
}
