package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sunbase/customer-service/internal/events"
)

func TestAuditServiceLogsEveryEvent(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	bus := events.NewBus()
	NewAuditService(bus, zap.New(core)).RegisterHandlers()

	require.NoError(t, bus.Publish(context.Background(), events.NewEvent(events.EventCustomerDeleted, 4, "admin@example.com", nil)))
	require.NoError(t, bus.Publish(context.Background(), events.NewEvent(events.EventCustomersImported, 0, "admin@example.com",
		events.CustomersImportedPayload{Source: "vendor", Count: 3})))

	entries := logs.FilterMessage("customer audit").All()
	require.Len(t, entries, 2)
	first := entries[0].ContextMap()
	assert.Equal(t, "customer_deleted", first["event_type"])
	assert.Equal(t, int64(4), first["customer_id"])
	assert.Equal(t, "admin@example.com", first["actor"])
	_, hasCustomer := entries[1].ContextMap()["customer_id"]
	assert.False(t, hasCustomer)
}
