package scheduler

import (
	"context"
	"log/slog"

	"tienda/config"
)

// TokenPurger clears expired verification and reset tokens.
type TokenPurger interface {
	PurgeExpiredTokens(ctx context.Context) (int64, error)
}

// NewTokenPurgeJob runs the purge on the scheduler.tokenPurge spec.
func NewTokenPurgeJob(cfg *config.Config, purger TokenPurger, logger *slog.Logger) Job {
	return Job{
		Name: "token-purge",
		Spec: cfg.Scheduler.TokenPurge,
		Run: func(ctx context.Context) error {
			purged, err := purger.PurgeExpiredTokens(ctx)
			if err != nil {
				return err
			}
			if purged > 0 {
				logger.InfoContext(ctx, "Expired tokens purged", slog.Int64("users", purged))
			}

			return nil
		},
	}
}
