package worker

import (
	"context"
	"time"

	"innkeep/internal/config"
	"innkeep/internal/models"
	"innkeep/internal/reports"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scheduler runs the recurring background jobs: the nightly schedule
// export and the sync-queue retry sweep. Specs use six-field cron
// expressions evaluated in UTC.
type Scheduler struct {
	cron     *cron.Cron
	cfg      config.SchedulerConfig
	exporter *reports.Exporter
	sync     *SyncWorker
	log      zerolog.Logger
}

func NewScheduler(cfg config.SchedulerConfig, exporter *reports.Exporter, sync *SyncWorker, logger *zerolog.Logger) *Scheduler {
	var log zerolog.Logger
	if logger != nil {
		log = logger.With().Str("component", "scheduler").Logger()
	}

	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithSeconds(),
		),
		cfg:      cfg,
		exporter: exporter,
		sync:     sync,
		log:      log,
	}
	s.registerJobs()
	return s
}

func (s *Scheduler) registerJobs() {
	if s.exporter != nil {
		if _, err := s.cron.AddFunc(s.cfg.NightlyExport, s.runNightlyExport); err != nil {
			s.log.Error().Err(err).Str("spec", s.cfg.NightlyExport).Msg("failed to register nightly export job")
		}
	}
	if s.sync != nil {
		if _, err := s.cron.AddFunc(s.cfg.RetrySweep, s.runRetrySweep); err != nil {
			s.log.Error().Err(err).Str("spec", s.cfg.RetrySweep).Msg("failed to register retry sweep job")
		}
	}
}

// runNightlyExport writes the rolling schedule workbook covering the
// recent past and the near future.
func (s *Scheduler) runNightlyExport() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	now := time.Now().UTC()
	start := now.AddDate(0, -models.DefaultExportRangeMonthsBefore, 0)
	end := now.AddDate(0, models.DefaultExportRangeMonthsAfter, 0)

	path, err := s.exporter.ExportSchedule(ctx, start, end)
	if err != nil {
		s.log.Error().Err(err).Msg("nightly export failed")
		return
	}
	s.log.Info().Str("file_path", path).Msg("nightly export completed")
}

func (s *Scheduler) runRetrySweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	s.sync.Sweep(ctx)
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("jobs", len(s.cron.Entries())).Msg("scheduler started")
}

// Stop waits for in-flight jobs before returning.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("scheduler stopped")
}
