package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"status-dashboard/internal/backup"
	"status-dashboard/internal/db"
	"status-dashboard/internal/filemaker"
	"status-dashboard/internal/logging"
	"status-dashboard/internal/models"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 100
)

type Checker interface {
	PerformBackupCheck(ctx context.Context) (models.CheckOutcome, error)
}

type RunLister interface {
	ListBackupCheckRuns(ctx context.Context, limit int) ([]models.CheckRunRecord, error)
}

// FileMakerService probes FileMaker servers and stores their admin credentials.
type FileMakerService interface {
	Status(ctx context.Context, serverID string) (models.FileMakerServerStatus, error)
	SaveCredential(ctx context.Context, cred models.FileMakerCredential, password string) error
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	checker      Checker
	runs         RunLister
	filemaker    FileMakerService
	pinger       Pinger
	logger       *logging.Logger
	checkTimeout time.Duration
}

// NewHandler builds the HTTP handlers. filemaker may be nil when the integration is not configured.
func NewHandler(checker Checker, runs RunLister, fm FileMakerService, pinger Pinger, logger *logging.Logger, checkTimeout time.Duration) *Handler {
	return &Handler{
		checker:      checker,
		runs:         runs,
		filemaker:    fm,
		pinger:       pinger,
		logger:       logger,
		checkTimeout: checkTimeout,
	}
}

func (h *Handler) RunBackupCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.checkTimeout)
	defer cancel()

	outcome, err := h.checker.PerformBackupCheck(ctx)
	if errors.Is(err, backup.ErrCheckInProgress) {
		h.logger.Warnf("Backup check rejected: already in progress")
		c.JSON(http.StatusConflict, gin.H{"error": "Backup check already in progress"})
		return
	}
	if err != nil {
		h.logger.Errorf("Backup check failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, outcome)
}

func (h *Handler) ListBackupCheckRuns(c *gin.Context) {
	limit := defaultRunsLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = min(n, maxRunsLimit)
	}

	runs, err := h.runs.ListBackupCheckRuns(c.Request.Context(), limit)
	if err != nil {
		h.logger.Errorf("Failed to list backup check runs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list backup check runs"})
		return
	}
	c.JSON(http.StatusOK, runs)
}

func (h *Handler) FileMakerStatus(c *gin.Context) {
	if h.filemaker == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "FileMaker integration is not configured"})
		return
	}
	serverID := c.Param("server_id")

	status, err := h.filemaker.Status(c.Request.Context(), serverID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, status)
	case errors.Is(err, db.ErrCredentialNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "No FileMaker credential stored for this server"})
	case errors.Is(err, filemaker.ErrCipherUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		h.logger.Errorf("FileMaker status for %s failed: %v", serverID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}

type credentialRequest struct {
	AdminURL string `json:"admin_url" binding:"required"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) SaveFileMakerCredential(c *gin.Context) {
	if h.filemaker == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "FileMaker integration is not configured"})
		return
	}
	var req credentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	serverID := c.Param("server_id")

	cred := models.FileMakerCredential{ServerID: serverID, AdminURL: req.AdminURL, Username: req.Username}
	err := h.filemaker.SaveCredential(c.Request.Context(), cred, req.Password)
	switch {
	case err == nil:
		c.Status(http.StatusNoContent)
	case errors.Is(err, filemaker.ErrInvalidCredential):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, db.ErrServerNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Server not found"})
	case errors.Is(err, filemaker.ErrCipherUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		h.logger.Errorf("Saving FileMaker credential for %s failed: %v", serverID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save FileMaker credential"})
	}
}

func (h *Handler) Health(c *gin.Context) {
	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.pinger.Ping(ctx); err != nil {
			h.logger.Errorf("Health check failed: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "database unreachable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
