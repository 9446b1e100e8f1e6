package export

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const scheduledRunTimeout = 5 * time.Minute

// Scheduler runs the exporter on a cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	logger logrus.FieldLogger
}

// NewScheduler registers the export job for a standard five-field cron spec.
func NewScheduler(spec string, exporter *Exporter, logger logrus.FieldLogger) (*Scheduler, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), scheduledRunTimeout)
		defer cancel()

		resp, err := exporter.Run(ctx)
		if err != nil {
			logger.WithError(err).Error("Scheduled export failed")
			return
		}
		logger.WithFields(logrus.Fields{
			"batch_id": resp.BatchID,
			"records":  resp.RecordsCount,
		}).Info("Scheduled export completed")
	})
	if err != nil {
		return nil, fmt.Errorf("invalid export schedule %q: %w", spec, err)
	}
	return &Scheduler{cron: c, logger: logger}, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	for _, entry := range s.cron.Entries() {
		s.logger.WithField("next_run", entry.Next).Info("Export scheduler started")
	}
}

// Stop halts the schedule and waits for a running export, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("Export scheduler did not stop in time")
	}
}
