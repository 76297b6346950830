package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/sunbase/customer-service/internal/events"
)

// AuditService records customer lifecycle events in the structured log.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	return &AuditService{dispatcher: dispatcher, logger: logger}
}

// RegisterHandlers subscribes to every customer event.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.SubscribeAll(a.handle)
}

func (a *AuditService) handle(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("actor", event.Actor),
		zap.Time("at", event.Timestamp),
	}
	if event.CustomerID != 0 {
		fields = append(fields, zap.Int64("customer_id", event.CustomerID))
	}
	if event.Payload != nil {
		fields = append(fields, zap.Any("payload", event.Payload))
	}
	a.logger.Info("customer audit", fields...)
	return nil
}
