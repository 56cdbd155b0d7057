package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jamshid-zayniyev/warehouse-admin/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ActionJournal records administrative actions for audit
type ActionJournal interface {
	Record(ctx context.Context, entry *models.ActionLog)
	History(ctx context.Context, requestID uint) ([]models.ActionLog, error)
}

// GormActionJournal persists the journal through gorm
type GormActionJournal struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewGormActionJournal creates a journal on db. The table must already be migrated.
func NewGormActionJournal(db *gorm.DB, logger *zap.Logger) *GormActionJournal {
	return &GormActionJournal{db: db, logger: logger}
}

// Record stores entry. Failures are logged, never returned: the action already happened.
func (j *GormActionJournal) Record(ctx context.Context, entry *models.ActionLog) {
	if err := j.db.WithContext(ctx).Create(entry).Error; err != nil {
		j.logger.Error("failed to record action",
			zap.String("action", entry.Action),
			zap.Uint("request_id", entry.RequestID),
			zap.Error(err))
	}
}

// History returns the journal entries of one request, oldest first
func (j *GormActionJournal) History(ctx context.Context, requestID uint) ([]models.ActionLog, error) {
	var logs []models.ActionLog
	err := j.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_at ASC, id ASC").
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load action history: %w", err)
	}
	return logs, nil
}

// NoopActionJournal is used when no database is configured
type NoopActionJournal struct{}

func (NoopActionJournal) Record(context.Context, *models.ActionLog) {}

func (NoopActionJournal) History(context.Context, uint) ([]models.ActionLog, error) {
	return []models.ActionLog{}, nil
}

func newActionLog(ctx context.Context, cmd Command, requestID uint) *models.ActionLog {
	entry := &models.ActionLog{
		CorrelationID: CorrelationID(ctx),
		RequestID:     requestID,
		Action:        string(cmd.Kind),
	}
	if cmd.Payload != nil {
		if raw, err := json.Marshal(cmd.Payload); err == nil {
			entry.Payload = string(raw)
		}
	}
	return entry
}

func markOutcome(entry *models.ActionLog, outcome string, err error) {
	entry.Outcome = outcome
	if err != nil {
		msg := err.Error()
		entry.Error = &msg
	}
}

type correlationKey struct{}

// WithCorrelationID attaches the request correlation id to ctx
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the correlation id attached to ctx, or ""
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}
