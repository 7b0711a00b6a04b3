package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"status-dashboard/internal/config"
	"status-dashboard/internal/logging"
	"status-dashboard/internal/models"
	"status-dashboard/internal/utils"
	"status-dashboard/pkg/email"
)

// BackupAlertMailer sends backup alerts and operational alerts over SMTP.
type BackupAlertMailer struct {
	cfg    config.Config
	logger *logging.Logger
	send   email.SendFunc
	delay  time.Duration
}

func NewBackupAlertMailer(cfg config.Config, logger *logging.Logger) *BackupAlertMailer {
	return &BackupAlertMailer{cfg: cfg, logger: logger, send: email.SendMail, delay: time.Second}
}

// SendBackupAlert sends one email listing every alerted server and every
// server due for review to all recipients.
func (m *BackupAlertMailer) SendBackupAlert(ctx context.Context, recipients []string, alerted []models.AlertedServer, thresholdHours int, dueForReview []models.ServerDueForReview) error {
	if len(alerted) == 0 && len(dueForReview) == 0 {
		return fmt.Errorf("nothing to report")
	}
	report, err := BuildBackupReport(alerted, thresholdHours, dueForReview)
	if err != nil {
		return err
	}
	return m.deliver(ctx, recipients, report)
}

// SendCredentialRefreshAlert tells recipients that the stored FileMaker admin
// credential for a server no longer works.
func (m *BackupAlertMailer) SendCredentialRefreshAlert(ctx context.Context, recipients []string, cred models.FileMakerCredential, cause error) error {
	subject := fmt.Sprintf("FileMaker credential refresh failed: %s", cred.ServerName)
	text := fmt.Sprintf(
		"The status dashboard could not sign in to the FileMaker Admin API for %s.\n\n"+
			"Admin URL: %s\nUsername: %s\nError: %v\n\n"+
			"Update the stored credential so status checks can resume.\n",
		cred.ServerName, cred.AdminURL, cred.Username, cause,
	)
	return m.deliver(ctx, recipients, BackupReport{Subject: subject, Text: text})
}

func (m *BackupAlertMailer) deliver(ctx context.Context, recipients []string, report BackupReport) error {
	ec := m.cfg.Email
	if ec.SMTPServer == "" || ec.SMTPPort == 0 || ec.Username == "" || ec.Password == "" {
		return fmt.Errorf("missing Email configuration: SMTPServer, SMTPPort, Username, or Password is empty")
	}

	msg := email.Message{
		FromName:    ec.FromName,
		FromAddress: ec.FromAddress,
		To:          recipients,
		Subject:     report.Subject,
		Text:        report.Text,
		HTML:        report.HTML,
	}
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("invalid backup alert email: %w", err)
	}

	err := utils.Retry(ctx, m.logger, 3, m.delay, func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return email.Send(ctx, m.send, ec.SMTPServer, ec.SMTPPort, ec.Username, ec.Password, msg)
	})
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", strings.Join(recipients, ", "), err)
	}
	m.logger.Infof("Email %q sent to %d recipients", report.Subject, len(recipients))
	return nil
}
