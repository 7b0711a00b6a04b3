package backup

import (
	"math"
	"time"

	"status-dashboard/internal/models"
)

// ReviewWindow is how far ahead an excluded server's review date is reported.
const ReviewWindow = 7 * 24 * time.Hour

// ReviewCutoff returns the last review date (UTC, date precision) that is due as of now.
func ReviewCutoff(now time.Time) time.Time {
	return truncateToDate(now.UTC().Add(ReviewWindow))
}

// DaysUntilReview returns the whole days between today (UTC) and reviewDate,
// rounded up. Zero means due today, negative values mean the review is overdue.
func DaysUntilReview(reviewDate, now time.Time) int {
	today := truncateToDate(now.UTC())
	days := reviewDate.Sub(today).Hours() / 24
	return int(math.Ceil(days))
}

// DueForReview filters excluded servers whose review date falls on or before ReviewCutoff.
func DueForReview(servers []models.MonitoredServer, now time.Time) []models.ServerDueForReview {
	cutoff := ReviewCutoff(now)
	out := make([]models.ServerDueForReview, 0, len(servers))
	for _, srv := range servers {
		if !srv.BackupMonitoringExcluded || srv.BackupMonitoringReviewDate == nil {
			continue
		}
		review := truncateToDate(srv.BackupMonitoringReviewDate.UTC())
		if review.After(cutoff) {
			continue
		}
		out = append(out, models.ServerDueForReview{
			ServerID:        srv.ID,
			ServerName:      srv.Name,
			IPAddress:       srv.IPAddress,
			HostName:        srv.HostName,
			Reason:          srv.BackupMonitoringDisabledReason,
			ReviewDate:      &review,
			DaysUntilReview: DaysUntilReview(review, now),
		})
	}
	return out
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
