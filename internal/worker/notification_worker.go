package worker

import (
	"github.com/spec-kit/identity-service/internal/service"
)

// StartWorkers registers event subscribers. Nil subscribers are skipped.
func StartWorkers(notificationService *service.NotificationService, auditRecorder *service.AuditRecorder) {
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	if auditRecorder != nil {
		auditRecorder.RegisterHandlers()
	}
}
