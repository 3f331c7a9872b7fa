package events

import (
	"context"
	"testing"
	"time"

	"github.com/pagevault/library/internal/db"
	"github.com/pagevault/library/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEventCarriesCorrelationID(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "req-42")

	event := NewEvent(ctx, EventTypeRentRequested, map[string]interface{}{"id": "r1"})

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, EventTypeRentRequested, event.EventType)
	assert.Equal(t, "1.0.0", event.EventVersion)
	assert.Equal(t, "req-42", event.CorrelationID)

	_, err := time.Parse(time.RFC3339, event.Timestamp)
	assert.NoError(t, err)
}

func TestEventEncoding(t *testing.T) {
	event := NewEvent(context.Background(), EventTypeCatalogDeleted, BookDeletedPayload("b1"))

	body, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "catalog.deleted", decoded["event_type"])
	assert.NotContains(t, decoded, "correlation_id")
	assert.Equal(t, map[string]interface{}{"id": "b1"}, decoded["payload"])
}

func TestRentPayload(t *testing.T) {
	reviewer := "admin-1"
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	rent := &db.RentalRequest{ID: "r1", UserID: "u1", BookID: "b1", Status: db.RentalAccepted, ReviewedBy: &reviewer, ReviewedAt: &at}

	payload := RentPayload(rent)

	assert.Equal(t, "accepted", payload["status"])
	assert.Equal(t, "admin-1", payload["reviewedBy"])
	assert.Equal(t, "2026-01-02T03:04:05Z", payload["reviewedAt"])

	pending := RentPayload(&db.RentalRequest{ID: "r2", UserID: "u1", BookID: "b1", Status: db.RentalPending})
	assert.NotContains(t, pending, "reviewedBy")
}

func TestNopPublisher(t *testing.T) {
	p := NewNopPublisher(logger.NewLogger("test", "info"))

	assert.NoError(t, p.Publish(context.Background(), EventTypeCatalogCreated, nil))
	assert.True(t, p.IsHealthy())
	assert.NoError(t, p.Close())
}

func TestPublisherIsHealthyWithoutConnection(t *testing.T) {
	p := &Publisher{}
	assert.False(t, p.IsHealthy())
}
