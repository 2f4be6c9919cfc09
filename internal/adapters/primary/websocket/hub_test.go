package websocket

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/helpdesk/internal/core/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub
}

func attach(t *testing.T, hub *Hub, actor domain.Actor) *Client {
	t.Helper()
	client := NewClient(hub, nil, actor, ClientConfig{}, discardLogger())
	require.True(t, hub.Attach(client))
	require.Eventually(t, func() bool { return hub.IsUserConnected(actor.ID) }, time.Second, 5*time.Millisecond)
	return client
}

func receive(t *testing.T, c *Client) (domain.Event, bool) {
	t.Helper()
	select {
	case event, ok := <-c.Send:
		return event, ok
	case <-time.After(200 * time.Millisecond):
		return domain.Event{}, false
	}
}

func newQuery(creator uuid.UUID) *domain.Query {
	q, _ := domain.NewQuery(domain.QueryParams{QueryTypeID: 1, Title: "Printer jammed", CreatorID: creator})
	return q
}

func TestHub_DeliversOnlyToActorsWhoCanSee(t *testing.T) {
	hub := startHub(t)

	creator := domain.Actor{ID: uuid.New(), Role: domain.RoleEmployee}
	otherEmployee := domain.Actor{ID: uuid.New(), Role: domain.RoleEmployee}
	specialist := domain.Actor{ID: uuid.New(), Role: domain.RoleSpecialist}
	admin := domain.Actor{ID: uuid.New(), Role: domain.RoleAdmin}

	creatorClient := attach(t, hub, creator)
	otherClient := attach(t, hub, otherEmployee)
	specialistClient := attach(t, hub, specialist)
	adminClient := attach(t, hub, admin)

	q := newQuery(creator.ID)
	require.NoError(t, hub.Broadcast(domain.NewQueryEvent(domain.EventQueryCreated, q)))

	event, ok := receive(t, creatorClient)
	require.True(t, ok)
	assert.Equal(t, domain.EventQueryCreated, event.Type)
	assert.Equal(t, q.ID.String(), event.Payload.ID)

	_, ok = receive(t, adminClient)
	assert.True(t, ok)
	_, ok = receive(t, otherClient)
	assert.False(t, ok, "another employee must not see the query")
	_, ok = receive(t, specialistClient)
	assert.False(t, ok, "unassigned specialist must not see the query")

	require.NoError(t, q.Assign(specialist.ID, time.Now()))
	require.NoError(t, hub.Broadcast(domain.NewQueryEvent(domain.EventQueryAssigned, q)))

	event, ok = receive(t, specialistClient)
	require.True(t, ok)
	assert.Equal(t, domain.EventQueryAssigned, event.Type)
	assert.Equal(t, specialist.ID.String(), *event.Payload.AssigneeID)
}

func TestHub_IgnoresEventsWithoutQuery(t *testing.T) {
	hub := startHub(t)
	admin := attach(t, hub, domain.Actor{ID: uuid.New(), Role: domain.RoleAdmin})

	require.NoError(t, hub.Broadcast(domain.Event{Type: domain.EventQueryCreated}))

	_, ok := receive(t, admin)
	assert.False(t, ok)
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	hub := startHub(t)
	actor := domain.Actor{ID: uuid.New(), Role: domain.RoleAdmin}

	first := attach(t, hub, actor)
	second := attach(t, hub, actor)
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	hub.Unregister <- first
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	_, ok := <-first.Send
	assert.False(t, ok)
	assert.True(t, hub.IsUserConnected(actor.ID))

	hub.Unregister <- second
	require.Eventually(t, func() bool { return !hub.IsUserConnected(actor.ID) }, time.Second, 5*time.Millisecond)
}

func TestHub_DropsSlowClients(t *testing.T) {
	hub := startHub(t)
	admin := attach(t, hub, domain.Actor{ID: uuid.New(), Role: domain.RoleAdmin})
	q := newQuery(uuid.New())

	// Nobody drains admin.Send, so its buffer eventually overflows.
	require.Eventually(t, func() bool {
		_ = hub.Broadcast(domain.NewQueryEvent(domain.EventQueryCreated, q))
		return hub.ClientCount() == 0
	}, 5*time.Second, time.Millisecond)
	assert.False(t, admin.trySend(domain.Event{Type: domain.EventPong}))
}

func TestHub_StopClosesClients(t *testing.T) {
	hub := NewHub(discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	client := attach(t, hub, domain.Actor{ID: uuid.New(), Role: domain.RoleEmployee})
	cancel()
	<-stopped

	_, ok := <-client.Send
	assert.False(t, ok)
	assert.False(t, hub.Attach(NewClient(hub, nil, client.Actor, ClientConfig{}, discardLogger())))
}
