package providers

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"status-dashboard/internal/models"
)

// BackupReport is the rendered content of one backup alert.
type BackupReport struct {
	Subject string
	Text    string
	HTML    string
}

type reportRow struct {
	ServerName     string
	HostName       string
	IPAddress      string
	LastBackup     string
	HoursSince     string
	Database       string
	FileSize       string
	NeverBackedUp  bool
	ReviewDate     string
	ReviewStatus   string
	DisabledReason string
}

type reportData struct {
	ThresholdHours int
	Overdue        []reportRow
	SmallFile      []reportRow
	Review         []reportRow
}

// BuildBackupReport renders the alert for the given classified servers and
// servers due for review. alerted may be empty when only reviews are due.
func BuildBackupReport(alerted []models.AlertedServer, thresholdHours int, due []models.ServerDueForReview) (BackupReport, error) {
	data := reportData{ThresholdHours: thresholdHours}
	for _, s := range alerted {
		row := alertRow(s)
		if s.Reason == models.AlertReasonSmallFile {
			data.SmallFile = append(data.SmallFile, row)
		} else {
			data.Overdue = append(data.Overdue, row)
		}
	}
	for _, r := range due {
		data.Review = append(data.Review, reviewRow(r))
	}

	var html bytes.Buffer
	if err := reportTemplate.Execute(&html, data); err != nil {
		return BackupReport{}, fmt.Errorf("failed to render backup report: %w", err)
	}

	return BackupReport{
		Subject: reportSubject(data),
		Text:    reportText(data),
		HTML:    html.String(),
	}, nil
}

// ReviewStatus describes how far away a review date is.
func ReviewStatus(daysUntil int) string {
	switch {
	case daysUntil < 0:
		return fmt.Sprintf("Overdue for review by %s", pluralDays(-daysUntil))
	case daysUntil == 0:
		return "Review due today"
	default:
		return fmt.Sprintf("Review in %s", pluralDays(daysUntil))
	}
}

func reportSubject(d reportData) string {
	if len(d.Overdue) == 0 && len(d.SmallFile) == 0 {
		return fmt.Sprintf("Backup Review Reminder: %d excluded server(s) due for review", len(d.Review))
	}
	parts := []string{}
	if n := len(d.Overdue); n > 0 {
		parts = append(parts, fmt.Sprintf("%d server(s) overdue", n))
	}
	if n := len(d.SmallFile); n > 0 {
		parts = append(parts, fmt.Sprintf("%d small backup file(s)", n))
	}
	return "Backup Alert: " + strings.Join(parts, ", ")
}

func reportText(d reportData) string {
	var b strings.Builder
	if len(d.Overdue) > 0 {
		fmt.Fprintf(&b, "Servers without a backup in the last %d hours:\n\n", d.ThresholdHours)
		for _, r := range d.Overdue {
			fmt.Fprintf(&b, "- %s (%s, %s)\n", r.ServerName, r.HostName, r.IPAddress)
			fmt.Fprintf(&b, "  Last backup: %s\n", r.LastBackup)
			if !r.NeverBackedUp {
				fmt.Fprintf(&b, "  Hours since backup: %s\n", r.HoursSince)
				fmt.Fprintf(&b, "  Database: %s (%s)\n", r.Database, r.FileSize)
			}
		}
		b.WriteString("\n")
	}
	if len(d.SmallFile) > 0 {
		b.WriteString("Servers whose latest backup is smaller than 1 MB:\n\n")
		for _, r := range d.SmallFile {
			fmt.Fprintf(&b, "- %s (%s, %s)\n", r.ServerName, r.HostName, r.IPAddress)
			fmt.Fprintf(&b, "  Database: %s\n", r.Database)
			fmt.Fprintf(&b, "  File size: %s\n", r.FileSize)
			fmt.Fprintf(&b, "  Last backup: %s\n", r.LastBackup)
		}
		b.WriteString("\n")
	}
	if len(d.Review) > 0 {
		b.WriteString("Servers excluded from backup monitoring that are due for review:\n\n")
		for _, r := range d.Review {
			fmt.Fprintf(&b, "- %s (%s)\n", r.ServerName, r.HostName)
			fmt.Fprintf(&b, "  Reason: %s\n", r.DisabledReason)
			fmt.Fprintf(&b, "  Review date: %s (%s)\n", r.ReviewDate, r.ReviewStatus)
		}
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func alertRow(s models.AlertedServer) reportRow {
	row := reportRow{
		ServerName: s.ServerName,
		HostName:   orDash(s.HostName),
		IPAddress:  orDash(s.IPAddress),
		LastBackup: "Never",
		HoursSince: "-",
		Database:   orDash(s.BackupDatabase),
		FileSize:   "Unknown",
	}
	if s.NeverBackedUp() {
		row.NeverBackedUp = true
		return row
	}
	row.LastBackup = s.LastBackupAt.UTC().Format("2006-01-02 15:04 UTC")
	if s.HoursSinceBackup != nil {
		row.HoursSince = fmt.Sprintf("%d", *s.HoursSinceBackup)
	}
	if s.FileSizeMB != nil {
		row.FileSize = fmt.Sprintf("%.2f MB", *s.FileSizeMB)
	}
	return row
}

func reviewRow(r models.ServerDueForReview) reportRow {
	row := reportRow{
		ServerName:     r.ServerName,
		HostName:       orDash(r.HostName),
		IPAddress:      orDash(r.IPAddress),
		DisabledReason: orDash(r.Reason),
		ReviewDate:     "-",
		ReviewStatus:   ReviewStatus(r.DaysUntilReview),
	}
	if r.ReviewDate != nil {
		row.ReviewDate = r.ReviewDate.Format(time.DateOnly)
	}
	return row
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

var reportTemplate = template.Must(template.New("backup-report").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
{{- if .Overdue}}
<h2 style="color: #b91c1c;">Overdue backups</h2>
<p>No backup has been recorded within the last {{.ThresholdHours}} hours for these servers.</p>
<table cellpadding="6" cellspacing="0" border="1" style="border-collapse: collapse;">
<tr><th>Server</th><th>Host</th><th>IP</th><th>Last backup</th><th>Hours since</th><th>Database</th><th>Size</th></tr>
{{- range .Overdue}}
<tr><td>{{.ServerName}}</td><td>{{.HostName}}</td><td>{{.IPAddress}}</td><td>{{if .NeverBackedUp}}<strong>Never</strong>{{else}}{{.LastBackup}}{{end}}</td><td>{{.HoursSince}}</td><td>{{.Database}}</td><td>{{.FileSize}}</td></tr>
{{- end}}
</table>
{{- end}}
{{- if .SmallFile}}
<h2 style="color: #b45309;">Small backup files</h2>
<p>The latest backup for these servers is smaller than 1 MB.</p>
<table cellpadding="6" cellspacing="0" border="1" style="border-collapse: collapse;">
<tr><th>Server</th><th>Host</th><th>IP</th><th>Database</th><th>Size</th><th>Last backup</th></tr>
{{- range .SmallFile}}
<tr><td>{{.ServerName}}</td><td>{{.HostName}}</td><td>{{.IPAddress}}</td><td>{{.Database}}</td><td>{{.FileSize}}</td><td>{{.LastBackup}}</td></tr>
{{- end}}
</table>
{{- end}}
{{- if .Review}}
<h2 style="color: #1d4ed8;">Excluded servers due for review</h2>
<table cellpadding="6" cellspacing="0" border="1" style="border-collapse: collapse;">
<tr><th>Server</th><th>Host</th><th>Reason</th><th>Review date</th><th>Status</th></tr>
{{- range .Review}}
<tr><td>{{.ServerName}}</td><td>{{.HostName}}</td><td>{{.DisabledReason}}</td><td>{{.ReviewDate}}</td><td>{{.ReviewStatus}}</td></tr>
{{- end}}
</table>
{{- end}}
</body>
</html>
`))
