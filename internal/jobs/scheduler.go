package jobs

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"PanelLedger/internal/config"
	"PanelLedger/internal/serviceiface"
	"PanelLedger/internal/telegram"
)

// CronService owns the report schedules. The app manager constructs and
// starts it exactly once, which is what keeps the jobs from being scheduled
// twice.
type CronService struct {
	cron     *cron.Cron
	reporter *Reporter
}

func NewCronService(db *sql.DB, tg *telegram.Client) serviceiface.Service {
	loc, err := time.LoadLocation(config.ReportTimeZone)
	if err != nil {
		log.Printf("[ERROR] loading %s, scheduling in UTC: %v", config.ReportTimeZone, err)
		loc = time.UTC
	}
	return &CronService{
		cron:     cron.New(cron.WithLocation(loc)),
		reporter: NewReporter(db, tg),
	}
}

func (s *CronService) Name() string {
	return "cron"
}

func (s *CronService) Start() error {
	if _, err := s.cron.AddFunc(config.DailyReportSchedule, func() {
		s.reporter.RunDaily(context.Background())
	}); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(config.HourlyReportSchedule, func() {
		s.reporter.RunHourly(context.Background())
	}); err != nil {
		return err
	}

	s.cron.Start()
	log.Println("[INFO] report schedules registered")
	return nil
}

func (s *CronService) Stop() error {
	ctx := s.cron.Stop()
	<-ctx.Done()
	return nil
}
