package backup

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"status-dashboard/internal/db"
	"status-dashboard/internal/logging"
	"status-dashboard/internal/models"
)

const defaultDispatchTimeout = 10 * time.Second

type ConfigStore interface {
	GetBackupMonitoringConfig(ctx context.Context) (models.BackupMonitoringConfig, error)
	UpdateBackupConfigLastCheckAt(ctx context.Context, id string, at time.Time) error
}

type ServerRegistry interface {
	ListMonitoredServers(ctx context.Context) ([]models.MonitoredServer, error)
	ListServersDueForReview(ctx context.Context, cutoff time.Time) ([]models.MonitoredServer, error)
}

type EventReader interface {
	ListBackupEvents(ctx context.Context) ([]models.BackupEvent, error)
}

type CheckRunWriter interface {
	CreateBackupCheckRun(ctx context.Context, run models.CheckRunRecord) error
}

// Store groups every read and write the check needs. *db.DB satisfies it.
type Store interface {
	ConfigStore
	ServerRegistry
	EventReader
	CheckRunWriter
}

// Dispatcher delivers one alert covering every alerted and due-for-review server.
type Dispatcher interface {
	SendBackupAlert(ctx context.Context, recipients []string, alerted []models.AlertedServer, thresholdHours int, dueForReview []models.ServerDueForReview) error
}

// Locker guards against concurrent runs across processes.
type Locker interface {
	TryBackupCheckLock(ctx context.Context) (release func(), acquired bool, err error)
}

// OutcomePublisher receives every completed outcome.
type OutcomePublisher interface {
	PublishCheckOutcome(outcome models.CheckOutcome)
}

type Option func(*Evaluator)

func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) { e.now = now }
}

func WithLocker(l Locker) Option {
	return func(e *Evaluator) { e.locker = l }
}

func WithPublisher(p OutcomePublisher) Option {
	return func(e *Evaluator) { e.publisher = p }
}

func WithDispatchTimeout(d time.Duration) Option {
	return func(e *Evaluator) {
		if d > 0 {
			e.dispatchTimeout = d
		}
	}
}

// Evaluator runs the backup freshness check.
type Evaluator struct {
	store           Store
	dispatcher      Dispatcher
	logger          *logging.Logger
	locker          Locker
	publisher       OutcomePublisher
	now             func() time.Time
	dispatchTimeout time.Duration

	mu sync.Mutex
}

func NewEvaluator(store Store, dispatcher Dispatcher, logger *logging.Logger, opts ...Option) *Evaluator {
	e := &Evaluator{
		store:           store,
		dispatcher:      dispatcher,
		logger:          logger,
		now:             time.Now,
		dispatchTimeout: defaultDispatchTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// PerformBackupCheck evaluates every monitored server, sends at most one alert
// and records the run. Only configuration and read failures are returned as
// errors; dispatch and audit failures are reported in the outcome or logged.
func (e *Evaluator) PerformBackupCheck(ctx context.Context) (models.CheckOutcome, error) {
	if !e.mu.TryLock() {
		return models.CheckOutcome{}, ErrCheckInProgress
	}
	defer e.mu.Unlock()

	if e.locker != nil {
		release, acquired, err := e.locker.TryBackupCheckLock(ctx)
		if err != nil {
			return models.CheckOutcome{}, &UpstreamReadError{Source: "check lock", Err: err}
		}
		if !acquired {
			return models.CheckOutcome{}, ErrCheckInProgress
		}
		defer release()
	}

	now := e.now().UTC()

	cfg, err := e.loadConfig(ctx)
	if err != nil {
		return models.CheckOutcome{}, err
	}

	outcome := models.CheckOutcome{
		CheckRunAt:             now,
		ThresholdHours:         cfg.ThresholdHours,
		NeverBackedUpServerIDs: []string{},
		NotificationRecipients: []string{},
		AlertedServers:         []models.AlertedServer{},
		ServersDueForReview:    []models.ServerDueForReview{},
	}

	if !cfg.IsEnabled {
		e.logger.Infof("Backup monitoring is disabled, skipping check")
		outcome.Status = models.CheckStatusSkipped
		outcome.Skipped = true
		outcome.Message = "backup monitoring is disabled"
		return outcome, nil
	}

	recipients := cleanRecipients(cfg.EmailRecipients)
	if len(recipients) == 0 {
		e.logger.Warnf("Backup monitoring has no email recipients configured, skipping check")
		outcome.Status = models.CheckStatusNoRecipients
		outcome.Warning = true
		outcome.Message = "no email recipients configured"
		return outcome, nil
	}

	servers, reviewCandidates, events, err := e.loadInputs(ctx, now)
	if err != nil {
		return models.CheckOutcome{}, err
	}

	due := DueForReview(reviewCandidates, now)
	outcome.Status = models.CheckStatusCompleted
	outcome.ServersDueForReview = due

	// With no monitored servers the run ends before dispatch, so any due
	// reviews are returned in the outcome but not emailed this run.
	if len(servers) == 0 {
		e.logger.Infof("No monitored servers, nothing to check")
		outcome.Message = "no monitored servers"
		e.touchLastCheck(ctx, cfg.ID, now)
		e.publish(outcome)
		return outcome, nil
	}

	cls := Classify(servers, LatestBackupPerServer(events), cfg, now)
	alerted := cls.NeedingAlert()

	outcome.ServersChecked = len(servers)
	outcome.ServersOverdue = len(cls.Overdue)
	outcome.ServersSmallFile = len(cls.SmallFile)
	outcome.ServersNeverBackedUp = len(cls.NeverBackedUp)
	if cls.NeverBackedUp != nil {
		outcome.NeverBackedUpServerIDs = cls.NeverBackedUp
	}
	outcome.AlertedServers = alerted

	if len(alerted) > 0 || len(due) > 0 {
		outcome.NotificationRecipients = recipients
		if err := e.dispatch(ctx, recipients, alerted, cfg.ThresholdHours, due); err != nil {
			msg := err.Error()
			outcome.NotificationError = &msg
			e.logger.Errorf("Failed to send backup alert to %d recipients: %v", len(recipients), err)
		} else {
			outcome.NotificationSent = true
			e.logger.Infof("Backup alert sent to %d recipients (%d overdue, %d small file, %d due for review)",
				len(recipients), len(cls.Overdue), len(cls.SmallFile), len(due))
		}
	}

	runID := uuid.New()
	record := models.CheckRunRecord{
		ID:                     runID,
		CheckRunAt:             now,
		ServersChecked:         outcome.ServersChecked,
		ServersOverdue:         outcome.ServersOverdue,
		OverdueServerIDs:       cls.OverdueIDs(),
		ThresholdHours:         cfg.ThresholdHours,
		NotificationSent:       outcome.NotificationSent,
		NotificationRecipients: outcome.NotificationRecipients,
		NotificationError:      outcome.NotificationError,
	}
	if err := e.store.CreateBackupCheckRun(ctx, record); err != nil {
		e.logger.Errorf("Failed to record backup check run %s: %v", runID, err)
	} else {
		outcome.AuditRecorded = true
		outcome.CheckRunID = runID.String()
	}

	e.touchLastCheck(ctx, cfg.ID, now)

	e.logger.WithField("check_run_id", runID.String()).Infof("Backup check completed: %d checked, %d overdue, %d small file, %d never backed up",
		outcome.ServersChecked, outcome.ServersOverdue, outcome.ServersSmallFile, outcome.ServersNeverBackedUp)

	e.publish(outcome)
	return outcome, nil
}

func (e *Evaluator) loadConfig(ctx context.Context) (models.BackupMonitoringConfig, error) {
	cfg, err := e.store.GetBackupMonitoringConfig(ctx)
	switch {
	case err == nil:
		return cfg, nil
	case errors.Is(err, db.ErrConfigNotFound):
		e.logger.Errorf("Backup monitoring configuration not found")
		return cfg, ErrConfigurationMissing
	case errors.Is(err, db.ErrMultipleConfigs):
		e.logger.Errorf("Backup monitoring configuration is not a singleton")
		return cfg, ErrMultipleConfigurations
	default:
		e.logger.Errorf("Failed to load backup monitoring configuration: %v", err)
		return cfg, &UpstreamReadError{Source: "backup monitoring configuration", Err: err}
	}
}

func (e *Evaluator) loadInputs(ctx context.Context, now time.Time) ([]models.MonitoredServer, []models.MonitoredServer, []models.BackupEvent, error) {
	var (
		servers []models.MonitoredServer
		review  []models.MonitoredServer
		events  []models.BackupEvent
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if servers, err = e.store.ListMonitoredServers(gctx); err != nil {
			return &UpstreamReadError{Source: "monitored servers", Err: err}
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if review, err = e.store.ListServersDueForReview(gctx, ReviewCutoff(now)); err != nil {
			return &UpstreamReadError{Source: "servers due for review", Err: err}
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if events, err = e.store.ListBackupEvents(gctx); err != nil {
			return &UpstreamReadError{Source: "backup events", Err: err}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		e.logger.Errorf("Backup check aborted: %v", err)
		return nil, nil, nil, err
	}
	return servers, review, events, nil
}

func (e *Evaluator) dispatch(ctx context.Context, recipients []string, alerted []models.AlertedServer, thresholdHours int, due []models.ServerDueForReview) error {
	dctx, cancel := context.WithTimeout(ctx, e.dispatchTimeout)
	defer cancel()
	return e.dispatcher.SendBackupAlert(dctx, recipients, alerted, thresholdHours, due)
}

func (e *Evaluator) touchLastCheck(ctx context.Context, configID string, now time.Time) {
	if err := e.store.UpdateBackupConfigLastCheckAt(ctx, configID, now); err != nil {
		e.logger.Errorf("Failed to update backup check timestamp: %v", err)
	}
}

func (e *Evaluator) publish(outcome models.CheckOutcome) {
	if e.publisher != nil {
		e.publisher.PublishCheckOutcome(outcome)
	}
}

func cleanRecipients(in []string) []string {
	out := make([]string, 0, len(in))
	for _, r := range in {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}
