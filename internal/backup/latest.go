package backup

import (
	"strings"

	"status-dashboard/internal/models"
)

// BackupFileSuffix is the only database file type considered for freshness.
const BackupFileSuffix = ".fmp12"

// IsQualifyingBackup reports whether an event counts toward backup freshness:
// type backup or backup_added, and a database name ending in .fmp12 (any case).
func IsQualifyingBackup(e models.BackupEvent) bool {
	if e.Type != models.EventTypeBackup && e.Type != models.EventTypeBackupAdded {
		return false
	}
	if e.BackupDatabase == nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(*e.BackupDatabase), BackupFileSuffix)
}

// LatestBackupPerServer keeps the newest qualifying event for each server.
// Events sharing a CreatedAt are resolved in favour of the highest ID, so the
// result does not depend on the order the store returned them in.
func LatestBackupPerServer(events []models.BackupEvent) map[string]models.BackupEvent {
	latest := make(map[string]models.BackupEvent)
	for _, e := range events {
		if !IsQualifyingBackup(e) {
			continue
		}
		current, ok := latest[e.ServerID]
		if !ok || newer(e, current) {
			latest[e.ServerID] = e
		}
	}
	return latest
}

func newer(a, b models.BackupEvent) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID > b.ID
	}
	return a.CreatedAt.After(b.CreatedAt)
}
