package filemaker

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"status-dashboard/internal/logging"
	"status-dashboard/internal/models"
)

type CredentialStore interface {
	GetFileMakerCredential(ctx context.Context, serverID string) (models.FileMakerCredential, error)
	UpsertFileMakerCredential(ctx context.Context, cred models.FileMakerCredential) error
}

// RecipientSource supplies the addresses that receive credential refresh alerts.
type RecipientSource interface {
	GetBackupMonitoringConfig(ctx context.Context) (models.BackupMonitoringConfig, error)
}

type RefreshAlerter interface {
	SendCredentialRefreshAlert(ctx context.Context, recipients []string, cred models.FileMakerCredential, cause error) error
}

// Cipher seals stored passwords. *crypto.AesGcmEncryptor satisfies it.
type Cipher interface {
	Encrypt(plain string) (string, error)
	Decrypt(cipherText string) (string, error)
}

type AdminAPI interface {
	Login(ctx context.Context, baseURL, username, password string) (string, error)
	ServerStatus(ctx context.Context, baseURL, token string) (ServerInfo, error)
}

var (
	ErrCipherUnavailable = errors.New("credential encryption is not configured")
	ErrInvalidCredential = errors.New("invalid filemaker credential")
)

// Service probes FileMaker servers using stored credentials and cached sessions.
type Service struct {
	store      CredentialStore
	recipients RecipientSource
	cipher     Cipher
	api        AdminAPI
	cache      *SessionCache
	alerter    RefreshAlerter
	logger     *logging.Logger
	now        func() time.Time
}

func NewService(store CredentialStore, recipients RecipientSource, cipher Cipher, api AdminAPI, cache *SessionCache, alerter RefreshAlerter, logger *logging.Logger) *Service {
	return &Service{
		store:      store,
		recipients: recipients,
		cipher:     cipher,
		api:        api,
		cache:      cache,
		alerter:    alerter,
		logger:     logger,
		now:        time.Now,
	}
}

// Status returns the current state of a FileMaker server. A cached session
// rejected by the server is replaced once before giving up.
func (s *Service) Status(ctx context.Context, serverID string) (models.FileMakerServerStatus, error) {
	cred, err := s.store.GetFileMakerCredential(ctx, serverID)
	if err != nil {
		return models.FileMakerServerStatus{}, err
	}

	token, cached := s.cache.Get(serverID)
	if !cached {
		if token, err = s.login(ctx, cred); err != nil {
			return models.FileMakerServerStatus{}, err
		}
	}

	info, err := s.api.ServerStatus(ctx, cred.AdminURL, token)
	if errors.Is(err, ErrUnauthorized) && cached {
		s.cache.Invalidate(serverID)
		if token, err = s.login(ctx, cred); err != nil {
			return models.FileMakerServerStatus{}, err
		}
		info, err = s.api.ServerStatus(ctx, cred.AdminURL, token)
	}
	if err != nil {
		return models.FileMakerServerStatus{}, fmt.Errorf("failed to read filemaker status for %s: %w", cred.ServerName, err)
	}

	return models.FileMakerServerStatus{
		ServerID:  serverID,
		Version:   info.Version,
		Running:   info.Running,
		CheckedAt: s.now().UTC(),
	}, nil
}

// SaveCredential encrypts password and stores the credential for cred.ServerID,
// replacing any previous one. The cached session for the server is dropped.
func (s *Service) SaveCredential(ctx context.Context, cred models.FileMakerCredential, password string) error {
	if s.cipher == nil {
		return ErrCipherUnavailable
	}
	cred.AdminURL = strings.TrimSpace(cred.AdminURL)
	cred.Username = strings.TrimSpace(cred.Username)
	if cred.ServerID == "" || cred.Username == "" || password == "" {
		return fmt.Errorf("%w: server id, username and password are required", ErrInvalidCredential)
	}
	u, err := url.Parse(cred.AdminURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: admin url must be an absolute http(s) url", ErrInvalidCredential)
	}

	sealed, err := s.cipher.Encrypt(password)
	if err != nil {
		return fmt.Errorf("failed to encrypt filemaker credential: %w", err)
	}
	cred.PasswordEncrypted = sealed
	if err := s.store.UpsertFileMakerCredential(ctx, cred); err != nil {
		return err
	}
	s.cache.Invalidate(cred.ServerID)
	s.logger.Infof("FileMaker credential updated for server %s", cred.ServerID)
	return nil
}

func (s *Service) login(ctx context.Context, cred models.FileMakerCredential) (string, error) {
	if s.cipher == nil {
		return "", ErrCipherUnavailable
	}
	password, err := s.cipher.Decrypt(cred.PasswordEncrypted)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt filemaker credential for %s: %w", cred.ServerName, err)
	}

	token, err := s.api.Login(ctx, cred.AdminURL, cred.Username, password)
	if err != nil {
		s.logger.Errorf("FileMaker login failed for %s: %v", cred.ServerName, err)
		s.alertRefreshFailure(ctx, cred, err)
		return "", fmt.Errorf("failed to refresh filemaker session for %s: %w", cred.ServerName, err)
	}

	if err := s.cache.Set(cred.ServerID, token); err != nil {
		s.logger.Warnf("Failed to cache FileMaker session for %s: %v", cred.ServerName, err)
	}
	return token, nil
}

func (s *Service) alertRefreshFailure(ctx context.Context, cred models.FileMakerCredential, cause error) {
	if s.alerter == nil || s.recipients == nil {
		return
	}
	cfg, err := s.recipients.GetBackupMonitoringConfig(ctx)
	if err != nil {
		s.logger.Errorf("Cannot load alert recipients for credential refresh failure: %v", err)
		return
	}
	recipients := make([]string, 0, len(cfg.EmailRecipients))
	for _, r := range cfg.EmailRecipients {
		if r != "" {
			recipients = append(recipients, r)
		}
	}
	if len(recipients) == 0 {
		s.logger.Warnf("No recipients configured for credential refresh alert on %s", cred.ServerName)
		return
	}
	if err := s.alerter.SendCredentialRefreshAlert(ctx, recipients, cred, cause); err != nil {
		s.logger.Errorf("Failed to send credential refresh alert for %s: %v", cred.ServerName, err)
	}
}
