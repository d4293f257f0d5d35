// Package scheduler runs the server's periodic maintenance on a gocron scheduler.
package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const defaultJobTimeout = time.Minute

var (
	ErrNotInitialized = errors.New("scheduler not initialized")
	ErrEmptyJobName   = errors.New("job name is required")
	ErrEmptyCronExpr  = errors.New("cron expression is required")
	ErrNilJobFunc     = errors.New("job function is required")
)

var (
	service     *Service
	serviceOnce sync.Once
	serviceErr  error
)

// Job is a named cron task. Run receives a context that expires after
// Timeout (one minute when zero) and is cancelled when the scheduler stops.
type Job struct {
	Name    string
	Cron    string
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

func (j Job) validate() error {
	switch {
	case strings.TrimSpace(j.Name) == "":
		return ErrEmptyJobName
	case strings.TrimSpace(j.Cron) == "":
		return ErrEmptyCronExpr
	case j.Run == nil:
		return ErrNilJobFunc
	}
	return nil
}

// Service owns a gocron scheduler and the context its jobs run under.
type Service struct {
	scheduler gocron.Scheduler
	ctx       context.Context
	cancel    context.CancelFunc
	stopOnce  sync.Once
	stopErr   error
}

// Init creates the process-wide scheduler. Cron expressions use UTC.
func Init() error {
	serviceOnce.Do(func() {
		service, serviceErr = NewService(time.UTC)
		if serviceErr == nil {
			log.Info().Msg("Scheduler initialized")
		}
	})
	return serviceErr
}

// ServiceInstance returns the scheduler created by Init.
func ServiceInstance() (*Service, error) {
	if service == nil && serviceErr == nil {
		return nil, ErrNotInitialized
	}
	return service, serviceErr
}

func Start() error {
	svc, err := ServiceInstance()
	if err != nil {
		return err
	}
	svc.Start()
	return nil
}

func Stop() error {
	svc, err := ServiceInstance()
	if err != nil {
		return err
	}
	return svc.Stop()
}

// NewService builds a scheduler. An overlapping run is rescheduled rather
// than started; job errors and panics are logged with the job name.
func NewService(loc *time.Location) (*Service, error) {
	if loc == nil {
		loc = time.UTC
	}
	sched, err := gocron.NewScheduler(
		gocron.WithLocation(loc),
		gocron.WithGlobalJobOptions(
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithEventListeners(
				gocron.AfterJobRunsWithError(func(jobID uuid.UUID, jobName string, err error) {
					log.Error().Err(err).Str("job_id", jobID.String()).Str("job_name", jobName).Msg("Scheduled job failed")
				}),
				gocron.AfterJobRunsWithPanic(func(jobID uuid.UUID, jobName string, recoverData any) {
					log.Error().Interface("panic", recoverData).Str("job_id", jobID.String()).Str("job_name", jobName).Msg("Scheduled job panicked")
				}),
			),
		),
	)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{scheduler: sched, ctx: ctx, cancel: cancel}, nil
}

func (s *Service) Start() {
	if s == nil {
		log.Error().Msg("Scheduler start requested before initialization")
		return
	}
	log.Info().Int("jobs", len(s.scheduler.Jobs())).Msg("Scheduler starting")
	s.scheduler.Start()
}

// Stop cancels running jobs and shuts the scheduler down. It is safe to
// call more than once.
func (s *Service) Stop() error {
	if s == nil {
		return ErrNotInitialized
	}
	s.stopOnce.Do(func() {
		log.Info().Msg("Scheduler stopping")
		s.cancel()
		s.stopErr = s.scheduler.Shutdown()
	})
	return s.stopErr
}

// Register adds job to the scheduler.
func (s *Service) Register(job Job) (gocron.Job, error) {
	if s == nil {
		return nil, ErrNotInitialized
	}
	if err := job.validate(); err != nil {
		return nil, err
	}
	timeout := job.Timeout
	if timeout <= 0 {
		timeout = defaultJobTimeout
	}
	logger := log.With().Str("job_name", job.Name).Str("cron", job.Cron).Logger()

	run := func() error {
		ctx, cancel := context.WithTimeout(s.ctx, timeout)
		defer cancel()
		started := time.Now()
		err := job.Run(logger.WithContext(ctx))
		logger.Debug().Dur("duration", time.Since(started)).Bool("ok", err == nil).Msg("Scheduled job finished")
		return err
	}

	registered, err := s.scheduler.NewJob(
		gocron.CronJob(job.Cron, false),
		gocron.NewTask(run),
		gocron.WithName(job.Name),
	)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to register scheduled job")
		return nil, err
	}
	logger.Info().Msg("Scheduled job registered")
	return registered, nil
}
