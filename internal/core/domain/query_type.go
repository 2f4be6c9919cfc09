package domain

import (
	"strings"
	"time"

	apperrors "github.com/lorrc/helpdesk/internal/core/errors"
)

const MaxQueryTypeNameLength = 100

// QueryType is an entry of the reference catalog queries are filed under.
type QueryType struct {
	ID        int64
	Name      string
	IsActive  bool
	CreatedAt time.Time
}

// DefaultQueryTypes is the catalog seeded by the initial migration.
var DefaultQueryTypes = []string{"Hardware", "Software", "Network", "Furniture", "Facilities", "General"}

// NewQueryType validates and builds a new active catalog entry.
func NewQueryType(name string) (*QueryType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.ErrNameRequired
	}
	if len(name) > MaxQueryTypeNameLength {
		return nil, apperrors.ErrNameTooLong
	}
	return &QueryType{
		Name:      name,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}, nil
}
