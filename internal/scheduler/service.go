package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/tendorai/avp/internal/config"
	"github.com/tendorai/avp/internal/models"
	"github.com/tendorai/avp/internal/scanner"
)

// Scan runs one weekly mention scan.
type Scan interface {
	Run(ctx context.Context) (scanner.Summary, error)
}

// Service owns the cron jobs.
type Service struct {
	cfg     *config.Config
	runner  *Runner
	scan    Scan
	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	entries map[string]cron.EntryID
}

// NewService creates a scheduler service. scan may be nil.
func NewService(cfg *config.Config, runner *Runner, scan Scan) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	logger := cronLogger{}
	return &Service{
		cfg:    cfg,
		runner: runner,
		scan:   scan,
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[string]cron.EntryID),
	}
}

// Start registers the enabled jobs and starts the cron loop.
func (s *Service) Start() error {
	if s.cfg.Reports.Enabled && s.runner != nil {
		if err := s.add("starter-reports", s.cfg.Reports.StarterSchedule, s.reportJob(models.TierStarter)); err != nil {
			return err
		}
		if err := s.add("pro-reports", s.cfg.Reports.ProSchedule, s.reportJob(models.TierPro)); err != nil {
			return err
		}
	}
	if s.cfg.Scanner.Enabled && s.scan != nil {
		if err := s.add("mention-scan", s.cfg.Scanner.Schedule, s.scanJob); err != nil {
			return err
		}
	}

	s.cron.Start()
	log.Info().Int("jobs", len(s.entries)).Msg("Scheduler started")
	return nil
}

// Stop cancels pending work and waits for running jobs to finish their current
// vendor or group.
func (s *Service) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	log.Info().Msg("Scheduler stopped")
}

// Next returns the next activation of a named job.
func (s *Service) Next(name string, after time.Time) (time.Time, bool) {
	id, ok := s.entries[name]
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(id).Schedule.Next(after), true
}

func (s *Service) add(name, spec string, job func()) error {
	id, err := s.cron.AddFunc(spec, job)
	if err != nil {
		return fmt.Errorf("invalid %s schedule %q: %w", name, spec, err)
	}
	s.entries[name] = id
	log.Info().Str("job", name).Str("schedule", spec).Msg("Scheduled job registered")
	return nil
}

func (s *Service) reportJob(tier models.Tier) func() {
	return func() {
		log.Info().Str("tier", string(tier)).Msg("Starting scheduled report run")
		if _, err := s.runner.Run(s.ctx, tier); err != nil {
			log.Error().Err(err).Str("tier", string(tier)).Msg("Scheduled report run failed")
		}
	}
}

func (s *Service) scanJob() {
	log.Info().Msg("Starting weekly mention scan")
	if _, err := s.scan.Run(s.ctx); err != nil {
		log.Error().Err(err).Msg("Weekly mention scan failed")
	}
}

// cronLogger adapts cron's logger to zerolog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
