package services

import (
	"context"

	"github.com/lorrc/helpdesk/internal/core/domain"
	"github.com/lorrc/helpdesk/internal/core/ports"
)

// NoopCache never stores anything; dashboards are recomputed on every read.
type NoopCache struct{}

var _ ports.DashboardCache = NoopCache{}

func (NoopCache) Get(context.Context, string) (*domain.Dashboard, bool, error) { return nil, false, nil }
func (NoopCache) Generation(context.Context, string) (int64, error)            { return 0, nil }

// Set discards the dashboard. It reports success since no invalidation can be lost.
func (NoopCache) Set(context.Context, string, int64, *domain.Dashboard) (bool, error) {
	return true, nil
}
func (NoopCache) Invalidate(context.Context, ...string) error { return nil }

// NoopBroadcaster discards events.
type NoopBroadcaster struct{}

var _ ports.EventBroadcaster = NoopBroadcaster{}

func (NoopBroadcaster) Broadcast(domain.Event) error { return nil }
