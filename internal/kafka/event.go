package kafka

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"status-dashboard/internal/models"
)

var ErrInvalidEvent = errors.New("invalid server event")

// wireEvent lists the field spellings seen from upstream monitors.
type wireEvent struct {
	ServerID        string          `json:"server_id"`
	ServerIDAlt     string          `json:"serverId"`
	Type            string          `json:"type"`
	EventType       string          `json:"event_type"`
	Source          string          `json:"source"`
	Message         *string         `json:"message"`
	BackupDatabase  *string         `json:"backup_database"`
	Database        *string         `json:"database"`
	BackupEventType *string         `json:"backup_event_type"`
	BackupFileSize  *int64          `json:"backup_file_size"`
	FileSize        *int64          `json:"file_size"`
	Suppressed      *bool           `json:"backup_file_size_alert_suppressed"`
	CreatedAt       json.RawMessage `json:"created_at"`
	Timestamp       json.RawMessage `json:"timestamp"`
}

// ParseEvent normalizes one Kafka message value into a ServerEvent.
func ParseEvent(value []byte) (models.ServerEvent, error) {
	var w wireEvent
	if err := json.Unmarshal(value, &w); err != nil {
		return models.ServerEvent{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	e := models.ServerEvent{
		ServerID:                      firstNonEmpty(w.ServerID, w.ServerIDAlt),
		Type:                          strings.ToLower(firstNonEmpty(w.Type, w.EventType)),
		Source:                        firstNonEmpty(w.Source, "kafka"),
		Message:                       w.Message,
		BackupDatabase:                firstPtr(w.BackupDatabase, w.Database),
		BackupEventType:               w.BackupEventType,
		BackupFileSize:                firstPtr(w.BackupFileSize, w.FileSize),
		BackupFileSizeAlertSuppressed: w.Suppressed,
	}
	if e.ServerID == "" {
		return models.ServerEvent{}, fmt.Errorf("%w: missing server_id", ErrInvalidEvent)
	}
	if e.Type == "" {
		return models.ServerEvent{}, fmt.Errorf("%w: missing type", ErrInvalidEvent)
	}

	raw := w.CreatedAt
	if len(raw) == 0 {
		raw = w.Timestamp
	}
	if len(raw) > 0 && string(raw) != "null" {
		t, err := parseTime(raw)
		if err != nil {
			return models.ServerEvent{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
		}
		e.CreatedAt = t
	}
	return e, nil
}

// parseTime accepts an RFC 3339 string or unix seconds.
func parseTime(raw json.RawMessage) (time.Time, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("bad timestamp %q", s)
		}
		return t.UTC(), nil
	}
	var secs int64
	if err := json.Unmarshal(raw, &secs); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("bad timestamp %s", string(raw))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPtr[T any](vals ...*T) *T {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}
