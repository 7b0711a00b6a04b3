package backup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"status-dashboard/internal/models"
)

var testNow = time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }
func int64Ptr(n int64) *int64 { return &n }
func boolPtr(b bool) *bool    { return &b }

func backupEvent(id int64, serverID string, age time.Duration, size int64) models.BackupEvent {
	return models.BackupEvent{
		ID:             id,
		ServerID:       serverID,
		Type:           models.EventTypeBackup,
		CreatedAt:      testNow.Add(-age),
		BackupDatabase: strPtr("Invoices.fmp12"),
		BackupFileSize: int64Ptr(size),
	}
}

func server(id string) models.MonitoredServer {
	return models.MonitoredServer{ID: id, Name: "server-" + id, HostName: strPtr("host-" + id)}
}

func TestIsQualifyingBackup(t *testing.T) {
	tests := []struct {
		name     string
		typ      string
		database *string
		want     bool
	}{
		{"backup fmp12", models.EventTypeBackup, strPtr("Sales.fmp12"), true},
		{"backup_added fmp12", models.EventTypeBackupAdded, strPtr("Sales.fmp12"), true},
		{"upper case suffix", models.EventTypeBackup, strPtr("SALES.FMP12"), true},
		{"wrong suffix", models.EventTypeBackup, strPtr("Sales.fp7"), false},
		{"suffix in middle", models.EventTypeBackup, strPtr("Sales.fmp12.bak"), false},
		{"missing database", models.EventTypeBackup, nil, false},
		{"status event", models.EventTypeUp, strPtr("Sales.fmp12"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := models.BackupEvent{Type: tt.typ, BackupDatabase: tt.database}
			assert.Equal(t, tt.want, IsQualifyingBackup(e))
		})
	}
}

func TestLatestBackupPerServerPicksNewest(t *testing.T) {
	events := []models.BackupEvent{
		backupEvent(1, "s1", 48*time.Hour, 5<<20),
		backupEvent(2, "s1", 2*time.Hour, 5<<20),
		backupEvent(3, "s2", 10*time.Hour, 5<<20),
	}
	nonQualifying := backupEvent(4, "s1", time.Hour, 5<<20)
	nonQualifying.BackupDatabase = strPtr("notes.txt")
	events = append(events, nonQualifying)

	latest := LatestBackupPerServer(events)

	require.Len(t, latest, 2)
	assert.Equal(t, int64(2), latest["s1"].ID)
	assert.Equal(t, int64(3), latest["s2"].ID)
}

func TestLatestBackupPerServerTieBreakIsOrderIndependent(t *testing.T) {
	a := backupEvent(10, "s1", 5*time.Hour, 100)
	b := backupEvent(11, "s1", 5*time.Hour, 5<<20)

	assert.Equal(t, int64(11), LatestBackupPerServer([]models.BackupEvent{a, b})["s1"].ID)
	assert.Equal(t, int64(11), LatestBackupPerServer([]models.BackupEvent{b, a})["s1"].ID)
}

func TestClassify(t *testing.T) {
	cfg := models.BackupMonitoringConfig{ThresholdHours: 24}

	t.Run("overdue regardless of size or suppression", func(t *testing.T) {
		ev := backupEvent(1, "s1", 30*time.Hour+20*time.Minute, 100)
		ev.BackupFileSizeAlertSuppressed = boolPtr(true)

		c := Classify([]models.MonitoredServer{server("s1")}, map[string]models.BackupEvent{"s1": ev}, cfg, testNow)

		require.Len(t, c.Overdue, 1)
		assert.Empty(t, c.SmallFile)
		got := c.Overdue[0]
		assert.Equal(t, models.AlertReasonOverdue, got.Reason)
		require.NotNil(t, got.HoursSinceBackup)
		assert.Equal(t, 30, *got.HoursSinceBackup)
		assert.True(t, got.IsSmallFile)
	})

	t.Run("backup exactly at threshold is not overdue", func(t *testing.T) {
		ev := backupEvent(1, "s1", 24*time.Hour, 100)

		c := Classify([]models.MonitoredServer{server("s1")}, map[string]models.BackupEvent{"s1": ev}, cfg, testNow)

		assert.Empty(t, c.Overdue)
		require.Len(t, c.SmallFile, 1)
		assert.Equal(t, 24, *c.SmallFile[0].HoursSinceBackup)
	})

	t.Run("backup just past threshold is overdue", func(t *testing.T) {
		ev := backupEvent(1, "s1", 24*time.Hour+time.Second, 5<<20)

		c := Classify([]models.MonitoredServer{server("s1")}, map[string]models.BackupEvent{"s1": ev}, cfg, testNow)

		require.Len(t, c.Overdue, 1)
		require.NotNil(t, c.Overdue[0].HoursSinceBackup)
		assert.Equal(t, 24, *c.Overdue[0].HoursSinceBackup)
	})

	t.Run("small file inside threshold", func(t *testing.T) {
		ev := backupEvent(1, "s1", 2*time.Hour, 500*1024)

		c := Classify([]models.MonitoredServer{server("s1")}, map[string]models.BackupEvent{"s1": ev}, cfg, testNow)

		assert.Empty(t, c.Overdue)
		require.Len(t, c.SmallFile, 1)
		got := c.SmallFile[0]
		assert.Equal(t, models.AlertReasonSmallFile, got.Reason)
		require.NotNil(t, got.FileSizeMB)
		assert.InDelta(t, 0.488, *got.FileSizeMB, 0.001)
	})

	t.Run("suppressed small file is silent", func(t *testing.T) {
		ev := backupEvent(1, "s1", 2*time.Hour, 500*1024)
		ev.BackupFileSizeAlertSuppressed = boolPtr(true)

		c := Classify([]models.MonitoredServer{server("s1")}, map[string]models.BackupEvent{"s1": ev}, cfg, testNow)

		assert.Empty(t, c.NeedingAlert())
	})

	t.Run("exactly one mebibyte is not small", func(t *testing.T) {
		ev := backupEvent(1, "s1", 2*time.Hour, SmallFileBytes)

		c := Classify([]models.MonitoredServer{server("s1")}, map[string]models.BackupEvent{"s1": ev}, cfg, testNow)

		assert.Empty(t, c.NeedingAlert())
	})

	t.Run("unknown size is not small", func(t *testing.T) {
		ev := backupEvent(1, "s1", 2*time.Hour, 0)
		ev.BackupFileSize = nil

		c := Classify([]models.MonitoredServer{server("s1")}, map[string]models.BackupEvent{"s1": ev}, cfg, testNow)

		assert.Empty(t, c.NeedingAlert())
	})

	t.Run("never backed up follows policy", func(t *testing.T) {
		servers := []models.MonitoredServer{server("s3")}

		off := Classify(servers, nil, cfg, testNow)
		assert.Empty(t, off.Overdue)
		assert.Equal(t, []string{"s3"}, off.NeverBackedUp)

		on := cfg
		on.AlertOnNeverBackedUp = true
		c := Classify(servers, nil, on, testNow)
		require.Len(t, c.Overdue, 1)
		assert.Nil(t, c.Overdue[0].HoursSinceBackup)
		assert.Nil(t, c.Overdue[0].LastBackupAt)
		assert.True(t, c.Overdue[0].NeverBackedUp())
	})

	t.Run("excluded servers are skipped", func(t *testing.T) {
		srv := server("s2")
		srv.BackupMonitoringExcluded = true
		on := cfg
		on.AlertOnNeverBackedUp = true

		c := Classify([]models.MonitoredServer{srv}, nil, on, testNow)

		assert.Empty(t, c.NeedingAlert())
		assert.Empty(t, c.NeverBackedUp)
	})

	t.Run("overdue listed before small file", func(t *testing.T) {
		latest := map[string]models.BackupEvent{
			"small": backupEvent(1, "small", time.Hour, 10),
			"old":   backupEvent(2, "old", 72*time.Hour, 5<<20),
		}
		c := Classify([]models.MonitoredServer{server("small"), server("old")}, latest, cfg, testNow)

		alerted := c.NeedingAlert()
		require.Len(t, alerted, 2)
		assert.Equal(t, "old", alerted[0].ServerID)
		assert.Equal(t, "small", alerted[1].ServerID)
		assert.Equal(t, []string{"old"}, c.OverdueIDs())
	})
}

func TestDaysUntilReview(t *testing.T) {
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		review time.Time
		want   int
	}{
		{"today", today, 0},
		{"tomorrow", today.AddDate(0, 0, 1), 1},
		{"in three days", today.AddDate(0, 0, 3), 3},
		{"two days ago", today.AddDate(0, 0, -2), -2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysUntilReview(tt.review, testNow))
		})
	}
}

func TestDueForReview(t *testing.T) {
	review := func(id string, days int) models.MonitoredServer {
		srv := server(id)
		srv.BackupMonitoringExcluded = true
		d := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC).AddDate(0, 0, days)
		srv.BackupMonitoringReviewDate = &d
		srv.BackupMonitoringDisabledReason = strPtr("migrating to new backup tool")
		return srv
	}
	notExcluded := review("s9", 1)
	notExcluded.BackupMonitoringExcluded = false

	due := DueForReview([]models.MonitoredServer{review("s2", 3), review("s4", 7), review("s5", 8), review("s6", -4), notExcluded}, testNow)

	require.Len(t, due, 3)
	assert.Equal(t, "s2", due[0].ServerID)
	assert.Equal(t, 3, due[0].DaysUntilReview)
	assert.Equal(t, "migrating to new backup tool", *due[0].Reason)
	assert.Equal(t, "s4", due[1].ServerID)
	assert.Equal(t, "s6", due[2].ServerID)
	assert.Equal(t, -4, due[2].DaysUntilReview)
}
