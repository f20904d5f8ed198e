package manager

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/greenadmin/internal/admin/metrics"
)

// Housekeeping periodically deletes client secrets past their expiration so
// the secrets table only holds credentials that can still be presented.
type Housekeeping struct {
	Clients  *ClientManager
	Logger   *slog.Logger
	Interval time.Duration
	Now      func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeeping creates the worker. A non-positive interval defaults to one hour.
func NewHousekeeping(clients *ClientManager, logger *slog.Logger, interval time.Duration) *Housekeeping {
	if interval <= 0 {
		interval = time.Hour
	}

	return &Housekeeping{
		Clients:  clients,
		Logger:   logger,
		Interval: interval,
		Now:      time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs a cleanup immediately and then on every tick until Stop.
func (h *Housekeeping) Start() {
	go h.run()
	h.Logger.Info("housekeeping started", "interval", h.Interval)
}

// Stop blocks until any in-progress cleanup has finished.
func (h *Housekeeping) Stop() {
	close(h.stopCh)
	<-h.doneCh
	h.Logger.Info("housekeeping stopped")
}

func (h *Housekeeping) run() {
	defer close(h.doneCh)

	ticker := time.NewTicker(h.Interval)
	defer ticker.Stop()

	h.RunOnce(context.Background())

	for {
		select {
		case <-ticker.C:
			h.RunOnce(context.Background())
		case <-h.stopCh:
			return
		}
	}
}

// RunOnce performs a single cleanup pass and returns how many secrets went.
func (h *Housekeeping) RunOnce(ctx context.Context) int64 {
	removed, err := h.Clients.PurgeExpiredSecrets(ctx, h.Now().UTC())
	if err != nil {
		h.Logger.Error("failed to delete expired client secrets", "error", err)
		return 0
	}

	metrics.ExpiredSecretsDeleted.Add(float64(removed))
	h.Logger.Info("housekeeping cleanup completed", "expired_secrets_deleted", removed)
	return removed
}
