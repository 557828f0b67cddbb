package bootstrap

import (
	"context"
	"fmt"

	"github.com/logiccrafts/connect-backend/pkg/logger"
)

// Check is one named dependency probe run before a background loop starts.
type Check struct {
	Name string
	Ping func(context.Context) error
}

// AwaitReady runs checks in order and stops at the first failure.
func AwaitReady(ctx context.Context, logg *logger.Logger, checks ...Check) error {
	for _, check := range checks {
		if check.Ping == nil {
			continue
		}
		if err := check.Ping(ctx); err != nil {
			logg.Error(ctx, check.Name+" ping failed", err)
			return fmt.Errorf("%s ping failed: %w", check.Name, err)
		}
	}
	logg.Debug(logg.WithField(ctx, "checks", len(checks)), "dependencies ready")
	return nil
}
