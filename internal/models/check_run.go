package models

import (
	"time"

	"github.com/google/uuid"
)

// CheckRunRecord is the audit row written once per backup check run.
type CheckRunRecord struct {
	ID                     uuid.UUID `json:"id"`
	CheckRunAt             time.Time `json:"check_run_at"`
	ServersChecked         int       `json:"servers_checked"`
	ServersOverdue         int       `json:"servers_overdue"`
	OverdueServerIDs       []string  `json:"overdue_server_ids"`
	ThresholdHours         int       `json:"threshold_hours"`
	NotificationSent       bool      `json:"notification_sent"`
	NotificationRecipients []string  `json:"notification_recipients"`
	NotificationError      *string   `json:"notification_error"`
}
