package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jamshid-zayniyev/warehouse-admin/models"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const scheduledExportTimeout = 5 * time.Minute

// ReportExporter exports the report of a scope
type ReportExporter interface {
	Export(ctx context.Context, token string, scope models.DateScope) (*ReportExport, error)
}

// ReportScheduler exports the previous day's report on a cron schedule
type ReportScheduler struct {
	cron     *cron.Cron
	exporter ReportExporter
	token    string
	logger   *zap.Logger
	now      func() time.Time
}

// NewReportScheduler creates a scheduler that authenticates with token
func NewReportScheduler(exporter ReportExporter, token string, logger *zap.Logger) *ReportScheduler {
	return &ReportScheduler{
		cron:     cron.New(),
		exporter: exporter,
		token:    token,
		logger:   logger,
		now:      time.Now,
	}
}

// Start registers the daily export under spec and starts the cron runner
func (s *ReportScheduler) Start(spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), scheduledExportTimeout)
		defer cancel()
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Error("scheduled report export failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid report schedule %q: %w", spec, err)
	}

	s.cron.Start()
	s.logger.Info("report scheduler started", zap.String("schedule", spec))
	return nil
}

// Stop halts the runner and waits for a running export to finish
func (s *ReportScheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunOnce exports yesterday's report
func (s *ReportScheduler) RunOnce(ctx context.Context) (*ReportExport, error) {
	scope, err := models.ResolveQuickRange(models.RangeYesterday, s.now())
	if err != nil {
		return nil, err
	}
	return s.exporter.Export(ctx, s.token, scope)
}
