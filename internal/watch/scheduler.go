package watch

import (
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/mdlinkcheck/internal/foundation/errors"
)

// scheduler requests a full re-check every interval, independent of file events.
type scheduler struct {
	scheduler gocron.Scheduler
}

func newScheduler(interval time.Duration, requests chan<- struct{}) (*scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to create scheduler").Build()
	}
	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			slog.Debug("Scheduled re-check requested")
			select {
			case requests <- struct{}{}:
			default:
			}
		}),
		gocron.WithName("periodic-recheck"),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to create periodic re-check job").
			WithContext("interval", interval.String()).
			Build()
	}
	s.Start()
	return &scheduler{scheduler: s}, nil
}

// Stop shuts the scheduler down.
func (s *scheduler) Stop() {
	if err := s.scheduler.Shutdown(); err != nil {
		slog.Warn("Failed to stop scheduler", "error", err)
	}
}
