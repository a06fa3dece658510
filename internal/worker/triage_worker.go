package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/akash-d122/agentic-helpdesk-sub002/internal/config"
	"github.com/akash-d122/agentic-helpdesk-sub002/internal/events"
	"github.com/akash-d122/agentic-helpdesk-sub002/internal/service"
)

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}

// StartTriageWorker wires ticket creation to the auto-resolution pipeline.
// Each new ticket triggers a background processing run with its own deadline,
// detached from the request that created the ticket.
func StartTriageWorker(dispatcher events.Dispatcher, triage *service.TriageService, cfg config.TriageConfig, logger *zap.Logger) {
	if dispatcher == nil || triage == nil {
		return
	}
	if !cfg.AutoTriage {
		logger.Info("auto triage disabled, tickets require explicit processing")
		return
	}

	dispatcher.Subscribe(events.EventTicketCreated, func(_ context.Context, event events.Event) error {
		ticketID := event.TicketID
		go func() {
			// budget covers the classification wait plus action execution
			ctx, cancel := context.WithTimeout(context.Background(), cfg.MaxWait()+30*time.Second)
			defer cancel()

			result, err := triage.ProcessTicket(ctx, ticketID, service.ProcessOptions{})
			if err != nil {
				logger.Warn("auto triage failed",
					zap.String("ticket_id", ticketID),
					zap.Error(err))
				return
			}
			action := ""
			if result != nil && result.Action != nil {
				action = string(result.Action.Type)
			}
			logger.Info("auto triage complete",
				zap.String("ticket_id", ticketID),
				zap.String("action", action))
		}()
		return nil
	})
}
