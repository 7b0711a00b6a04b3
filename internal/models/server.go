package models

import "time"

// MonitoredServer is a registry entry as seen by the backup check, with the host name joined in.
type MonitoredServer struct {
	ID                             string     `json:"id"`
	Name                           string     `json:"name"`
	IPAddress                      *string    `json:"ip_address"`
	HostID                         *string    `json:"host_id"`
	HostName                       *string    `json:"host_name"`
	BackupMonitoringExcluded       bool       `json:"backup_monitoring_excluded"`
	BackupMonitoringDisabledReason *string    `json:"backup_monitoring_disabled_reason"`
	BackupMonitoringReviewDate     *time.Time `json:"backup_monitoring_review_date"`
}

// ServerDueForReview is an excluded server whose review date has arrived or is within a week.
// DaysUntilReview is negative once the review date has passed.
type ServerDueForReview struct {
	ServerID        string     `json:"server_id"`
	ServerName      string     `json:"server_name"`
	IPAddress       *string    `json:"ip_address"`
	HostName        *string    `json:"host_name"`
	Reason          *string    `json:"reason"`
	ReviewDate      *time.Time `json:"review_date"`
	DaysUntilReview int        `json:"days_until_review"`
}
