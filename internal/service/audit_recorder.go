package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/identity-service/internal/domain"
	"github.com/spec-kit/identity-service/internal/events"
	"github.com/spec-kit/identity-service/internal/repository"
)

// AuditRecorder turns administrative user events into audit log rows.
type AuditRecorder struct {
	dispatcher events.Dispatcher
	auditLogs  repository.AuditLogRepository
	logger     *zap.Logger
}

// NewAuditRecorder creates the recorder.
func NewAuditRecorder(dispatcher events.Dispatcher, auditLogs repository.AuditLogRepository, logger *zap.Logger) *AuditRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditRecorder{dispatcher: dispatcher, auditLogs: auditLogs, logger: logger}
}

// RegisterHandlers subscribes to events.
func (a *AuditRecorder) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventUserCreated, a.handleUserChanged)
	a.dispatcher.Subscribe(events.EventUserUpdated, a.handleUserChanged)
}

func (a *AuditRecorder) handleUserChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.UserChangedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}

	entry := &domain.AuditLog{
		UserID:      event.UserID,
		PerformedBy: event.UserID,
		Action:      payload.Action,
		EntityType:  domain.AuditEntityUser,
		IPAddress:   event.Actor.IP,
		PerformedAt: event.Timestamp,
	}
	if event.Actor.UserID != nil {
		entry.PerformedBy = *event.Actor.UserID
	}
	if payload.Description != "" {
		entry.Description = &payload.Description
	}
	if payload.Before != nil {
		entry.OldValues = snapshot(payload.Before)
	}
	entry.NewValues = snapshot(payload.After)

	if err := a.auditLogs.Create(ctx, entry); err != nil {
		a.logger.Warn("failed to record audit log",
			zap.String("user_id", event.UserID),
			zap.String("action", string(payload.Action)),
			zap.Error(err))
		return err
	}
	return nil
}

func snapshot(v any) *string {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	s := string(raw)
	return &s
}
