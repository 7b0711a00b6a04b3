package models

import "time"

// BackupMonitoringConfig is the single configuration row driving the backup check.
type BackupMonitoringConfig struct {
	ID                   string     `json:"id"`
	IsEnabled            bool       `json:"is_enabled"`
	ThresholdHours       int        `json:"threshold_hours"`
	EmailRecipients      []string   `json:"email_recipients"`
	AlertOnNeverBackedUp bool       `json:"alert_on_never_backed_up"`
	LastCheckAt          *time.Time `json:"last_check_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// Threshold returns ThresholdHours as a duration.
func (c BackupMonitoringConfig) Threshold() time.Duration {
	return time.Duration(c.ThresholdHours) * time.Hour
}
