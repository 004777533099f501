package cloud

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
)

// Scheduler runs periodic background syncs in serve mode.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *logrus.Logger
}

// NewScheduler starts a job calling svc.SyncNow every interval.
func NewScheduler(svc *Service, interval time.Duration, logger *logrus.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("creating scheduler: %w", err)
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			res, err := svc.SyncNow(context.Background())
			if err != nil {
				logger.WithError(err).Warn("scheduled sync failed")
				return
			}
			logger.WithFields(logrus.Fields{
				"fetched": res.Fetched,
				"applied": res.Applied,
				"pushed":  res.Pushed,
				"errors":  res.Errors,
			}).Info("scheduled sync complete")
		}),
		gocron.WithName("cloud-sync"),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("registering sync job: %w", err)
	}

	s.Start()
	return &Scheduler{scheduler: s, logger: logger}, nil
}

// Stop shuts the scheduler down and waits for a running job to finish.
func (s *Scheduler) Stop() error {
	return s.scheduler.Shutdown()
}
