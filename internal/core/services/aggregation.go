package services

import (
	"sort"

	"github.com/google/uuid"
	"github.com/lorrc/helpdesk/internal/core/domain"
)

// CountByStatus tallies qs by lifecycle state. The counts always sum to len(qs).
func CountByStatus(qs []*domain.Query) domain.StatusCounts {
	var counts domain.StatusCounts
	for _, q := range qs {
		switch q.Status {
		case domain.StatusOpen:
			counts.Open++
		case domain.StatusAssigned:
			counts.Assigned++
		case domain.StatusInProgress:
			counts.InProgress++
		case domain.StatusCompleted:
			counts.Completed++
		}
	}
	return counts
}

// CompletionRate is completed/total, or 0 for an empty set.
func CompletionRate(qs []*domain.Query) float64 {
	return rate(CountByStatus(qs))
}

func rate(counts domain.StatusCounts) float64 {
	total := counts.Total()
	if total == 0 {
		return 0
	}
	return float64(counts.Completed) / float64(total)
}

// Summarize builds the status breakdown of qs.
func Summarize(qs []*domain.Query) domain.Stats {
	counts := CountByStatus(qs)
	return domain.Stats{
		Counts:         counts,
		Total:          counts.Total(),
		Pending:        counts.Pending(),
		CompletionRate: rate(counts),
	}
}

// PerSpecialistWorkload groups qs by assignee. Unassigned queries are skipped.
func PerSpecialistWorkload(qs []*domain.Query) []domain.UserWorkload {
	return groupWorkload(qs, func(q *domain.Query) (uuid.UUID, bool) {
		if q.AssigneeID == nil {
			return uuid.Nil, false
		}
		return *q.AssigneeID, true
	})
}

// PerEmployeeHistory groups qs by creator.
func PerEmployeeHistory(qs []*domain.Query) []domain.UserWorkload {
	return groupWorkload(qs, func(q *domain.Query) (uuid.UUID, bool) {
		return q.CreatorID, true
	})
}

func groupWorkload(qs []*domain.Query, key func(*domain.Query) (uuid.UUID, bool)) []domain.UserWorkload {
	byUser := make(map[uuid.UUID]*domain.Workload)
	for _, q := range qs {
		id, ok := key(q)
		if !ok {
			continue
		}
		w, exists := byUser[id]
		if !exists {
			w = &domain.Workload{}
			byUser[id] = w
		}
		w.Total++
		if q.Status == domain.StatusCompleted {
			w.Completed++
		}
	}

	result := make([]domain.UserWorkload, 0, len(byUser))
	for id, w := range byUser {
		w.Pending = w.Total - w.Completed
		result = append(result, domain.UserWorkload{UserID: id, Workload: *w})
	}
	sortWorkloads(result)
	return result
}

// sortWorkloads orders by total descending, then by user id so output is stable.
func sortWorkloads(ws []domain.UserWorkload) {
	sort.Slice(ws, func(i, j int) bool {
		if ws[i].Total != ws[j].Total {
			return ws[i].Total > ws[j].Total
		}
		return ws[i].UserID.String() < ws[j].UserID.String()
	})
}
