package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventCanonicalFields(t *testing.T) {
	e, err := ParseEvent([]byte(`{
		"server_id": "srv-1",
		"type": "backup",
		"source": "fm-agent",
		"backup_database": "Invoices.fmp12",
		"backup_event_type": "scheduled",
		"backup_file_size": 5242880,
		"backup_file_size_alert_suppressed": true,
		"created_at": "2026-03-10T08:00:00Z"
	}`))
	require.NoError(t, err)

	assert.Equal(t, "srv-1", e.ServerID)
	assert.Equal(t, "backup", e.Type)
	assert.Equal(t, "fm-agent", e.Source)
	assert.Equal(t, "Invoices.fmp12", *e.BackupDatabase)
	assert.Equal(t, int64(5242880), *e.BackupFileSize)
	assert.True(t, *e.BackupFileSizeAlertSuppressed)
	assert.Equal(t, time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC), e.CreatedAt)
}

func TestParseEventAlternateFields(t *testing.T) {
	e, err := ParseEvent([]byte(`{"serverId":"srv-2","event_type":"BACKUP_ADDED","database":"Sales.fmp12","file_size":10,"timestamp":1773129600}`))
	require.NoError(t, err)

	assert.Equal(t, "srv-2", e.ServerID)
	assert.Equal(t, "backup_added", e.Type)
	assert.Equal(t, "kafka", e.Source)
	assert.Equal(t, "Sales.fmp12", *e.BackupDatabase)
	assert.Equal(t, int64(10), *e.BackupFileSize)
	assert.Equal(t, time.Unix(1773129600, 0).UTC(), e.CreatedAt)
}

func TestParseEventWithoutTimestamp(t *testing.T) {
	e, err := ParseEvent([]byte(`{"server_id":"srv-1","type":"up"}`))
	require.NoError(t, err)
	assert.True(t, e.CreatedAt.IsZero())
	assert.Nil(t, e.BackupDatabase)
}

func TestParseEventRejectsInvalid(t *testing.T) {
	for _, body := range []string{
		`not json`,
		`{"type":"backup"}`,
		`{"server_id":"srv-1"}`,
		`{"server_id":"srv-1","type":"up","created_at":"yesterday"}`,
	} {
		_, err := ParseEvent([]byte(body))
		assert.ErrorIs(t, err, ErrInvalidEvent, body)
	}
}
