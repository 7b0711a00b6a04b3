package providers

import (
	"context"

	"status-dashboard/internal/logging"
	"status-dashboard/internal/models"
)

// AlertSender delivers one backup alert.
type AlertSender interface {
	SendBackupAlert(ctx context.Context, recipients []string, alerted []models.AlertedServer, thresholdHours int, dueForReview []models.ServerDueForReview) error
}

// FanoutDispatcher sends through a primary sender and copies the alert to
// best-effort mirrors. Only the primary result is returned.
type FanoutDispatcher struct {
	primary AlertSender
	mirrors []AlertSender
	logger  *logging.Logger
}

func NewFanoutDispatcher(primary AlertSender, logger *logging.Logger, mirrors ...AlertSender) *FanoutDispatcher {
	return &FanoutDispatcher{primary: primary, mirrors: mirrors, logger: logger}
}

func (f *FanoutDispatcher) SendBackupAlert(ctx context.Context, recipients []string, alerted []models.AlertedServer, thresholdHours int, dueForReview []models.ServerDueForReview) error {
	err := f.primary.SendBackupAlert(ctx, recipients, alerted, thresholdHours, dueForReview)
	for _, m := range f.mirrors {
		if mErr := m.SendBackupAlert(ctx, recipients, alerted, thresholdHours, dueForReview); mErr != nil {
			f.logger.Warnf("Backup alert mirror failed: %v", mErr)
		}
	}
	return err
}
