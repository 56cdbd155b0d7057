package models

import (
	"time"
)

// Action outcomes recorded in the journal
const (
	OutcomeApplied = "applied"
	OutcomeInvalid = "invalid"
	OutcomeFailed  = "failed"
)

// ActionLog is one administrative action dispatched against a supplier request
type ActionLog struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CorrelationID string    `gorm:"size:36;index" json:"correlation_id"`
	RequestID     uint      `gorm:"not null;index" json:"request_id"`
	Action        string    `gorm:"not null" json:"action"` // success, reassign, reject, add_product
	Payload       string    `gorm:"type:text" json:"payload"`
	Outcome       string    `gorm:"not null" json:"outcome"`
	Error         *string   `gorm:"type:text" json:"error"` // nullable, set when the action did not apply
	Reloaded      bool      `gorm:"not null;default:false" json:"reloaded"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName specifies the table name for the ActionLog model
func (ActionLog) TableName() string {
	return "action_logs"
}
