package backup

import (
	"math"
	"time"

	"status-dashboard/internal/models"
)

// SmallFileBytes is the size below which a backup is considered suspiciously small.
const SmallFileBytes int64 = 1024 * 1024

// Classification is the result of evaluating monitored servers against their latest backups.
type Classification struct {
	Overdue       []models.AlertedServer
	SmallFile     []models.AlertedServer
	NeverBackedUp []string
}

// NeedingAlert returns overdue servers followed by small-file servers.
// A server is never in both sets.
func (c Classification) NeedingAlert() []models.AlertedServer {
	out := make([]models.AlertedServer, 0, len(c.Overdue)+len(c.SmallFile))
	out = append(out, c.Overdue...)
	return append(out, c.SmallFile...)
}

// OverdueIDs returns the server IDs of the overdue set in classification order.
func (c Classification) OverdueIDs() []string {
	ids := make([]string, 0, len(c.Overdue))
	for _, s := range c.Overdue {
		ids = append(ids, s.ServerID)
	}
	return ids
}

// Classify sorts servers into overdue, small-file and never-backed-up sets.
// Excluded servers are skipped even if present in servers. Staleness is
// checked before size, so an overdue server is never reported as small-file,
// and suppression only silences the small-file path.
func Classify(servers []models.MonitoredServer, latest map[string]models.BackupEvent, cfg models.BackupMonitoringConfig, now time.Time) Classification {
	var c Classification
	cutoff := now.Add(-cfg.Threshold())

	for _, srv := range servers {
		if srv.BackupMonitoringExcluded {
			continue
		}

		ev, ok := latest[srv.ID]
		if !ok {
			c.NeverBackedUp = append(c.NeverBackedUp, srv.ID)
			if cfg.AlertOnNeverBackedUp {
				c.Overdue = append(c.Overdue, alertedServer(srv, models.AlertReasonOverdue))
			}
			continue
		}

		if ev.CreatedAt.Before(cutoff) {
			c.Overdue = append(c.Overdue, withBackup(alertedServer(srv, models.AlertReasonOverdue), ev, now))
			continue
		}

		if ev.BackupFileSize != nil && *ev.BackupFileSize < SmallFileBytes && !ev.Suppressed() {
			c.SmallFile = append(c.SmallFile, withBackup(alertedServer(srv, models.AlertReasonSmallFile), ev, now))
		}
	}
	return c
}

// HoursSince returns whole hours elapsed between t and now, rounded down.
func HoursSince(t, now time.Time) int {
	return int(math.Floor(now.Sub(t).Hours()))
}

func alertedServer(srv models.MonitoredServer, reason models.AlertReason) models.AlertedServer {
	return models.AlertedServer{
		ServerID:   srv.ID,
		ServerName: srv.Name,
		IPAddress:  srv.IPAddress,
		HostName:   srv.HostName,
		Reason:     reason,
	}
}

func withBackup(s models.AlertedServer, ev models.BackupEvent, now time.Time) models.AlertedServer {
	createdAt := ev.CreatedAt
	hours := HoursSince(createdAt, now)
	s.LastBackupAt = &createdAt
	s.HoursSinceBackup = &hours
	s.BackupDatabase = ev.BackupDatabase
	if ev.BackupFileSize != nil {
		size := *ev.BackupFileSize
		mb := float64(size) / float64(SmallFileBytes)
		s.FileSizeBytes = &size
		s.FileSizeMB = &mb
		s.IsSmallFile = size < SmallFileBytes
	}
	return s
}
