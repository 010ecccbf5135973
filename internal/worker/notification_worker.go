package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/campus-network/internal/auth"
	"github.com/spec-kit/campus-network/internal/service"
)

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}

// StartRevocationSweeper periodically drops revocation entries whose
// tokens have outlived their own expiry.
func StartRevocationSweeper(ctx context.Context, store *auth.RevocationStore, interval time.Duration, logger *zap.Logger) {
	if store == nil {
		return
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if removed := store.Sweep(now); removed > 0 {
					logger.Debug("revocation entries swept", zap.Int("removed", removed))
				}
			}
		}
	}()
}
