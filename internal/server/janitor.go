package server

import (
	"time"

	"sus-party/internal/game"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// StartJanitor closes sessions idle for longer than idle on the given cron
// schedule. The caller stops the returned scheduler on shutdown.
func StartJanitor(registry *game.Registry, schedule string, idle time.Duration, logger *zap.Logger) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		closed := registry.Sweep(idle)
		if len(closed) > 0 {
			logger.Info("closed idle sessions", zap.Strings("sessions", closed), zap.Duration("idle", idle))
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
