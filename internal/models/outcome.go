package models

import "time"

// AlertReason tags why a server is in an alert email.
type AlertReason string

const (
	AlertReasonOverdue   AlertReason = "overdue"
	AlertReasonSmallFile AlertReason = "small_file"
)

// AlertedServer is a classified server with the fields needed by the email and the API response.
// HoursSinceBackup and LastBackupAt are nil when the server has never been backed up.
type AlertedServer struct {
	ServerID         string      `json:"server_id"`
	ServerName       string      `json:"server_name"`
	IPAddress        *string     `json:"ip_address"`
	HostName         *string     `json:"host_name"`
	Reason           AlertReason `json:"reason"`
	LastBackupAt     *time.Time  `json:"last_backup_at"`
	HoursSinceBackup *int        `json:"hours_since_backup"`
	BackupDatabase   *string     `json:"backup_database"`
	FileSizeBytes    *int64      `json:"file_size_bytes"`
	FileSizeMB       *float64    `json:"file_size_mb"`
	IsSmallFile      bool        `json:"is_small_file"`
}

// NeverBackedUp reports whether no qualifying backup was ever recorded for the server.
func (s AlertedServer) NeverBackedUp() bool {
	return s.LastBackupAt == nil
}

// CheckStatus is the top-level result of a backup check run.
type CheckStatus string

const (
	CheckStatusSkipped      CheckStatus = "skipped"
	CheckStatusNoRecipients CheckStatus = "no_recipients"
	CheckStatusCompleted    CheckStatus = "completed"
)

// CheckOutcome is returned by a backup check run and surfaced as the HTTP response body.
type CheckOutcome struct {
	Status                 CheckStatus          `json:"status"`
	Skipped                bool                 `json:"skipped,omitempty"`
	Warning                bool                 `json:"warning,omitempty"`
	Message                string               `json:"message,omitempty"`
	CheckRunID             string               `json:"check_run_id,omitempty"`
	CheckRunAt             time.Time            `json:"check_run_at"`
	ThresholdHours         int                  `json:"threshold_hours"`
	ServersChecked         int                  `json:"servers_checked"`
	ServersOverdue         int                  `json:"servers_overdue"`
	ServersSmallFile       int                  `json:"servers_small_file"`
	ServersNeverBackedUp   int                  `json:"servers_never_backed_up"`
	NeverBackedUpServerIDs []string             `json:"never_backed_up_server_ids"`
	NotificationSent       bool                 `json:"notification_sent"`
	NotificationRecipients []string             `json:"notification_recipients"`
	NotificationError      *string              `json:"notification_error"`
	AuditRecorded          bool                 `json:"audit_recorded"`
	AlertedServers         []AlertedServer      `json:"alerted_servers"`
	ServersDueForReview    []ServerDueForReview `json:"servers_due_for_review"`
}
