package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const CallTypeWorkflowGeneration = "workflow_generation"

// AICallLog is one model attempt. Prompts and responses are not stored.
type AICallLog struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	RequestID  string         `gorm:"column:request_id;index" json:"request_id,omitempty"`
	CallType   string         `gorm:"column:call_type;not null" json:"call_type"`
	Model      string         `gorm:"column:model;not null;index" json:"model"`
	Attempt    int            `gorm:"column:attempt;not null" json:"attempt"`
	Success    bool           `gorm:"column:success;not null" json:"success"`
	Overload   bool           `gorm:"column:overload;not null" json:"overload"`
	Error      string         `gorm:"column:error" json:"error"`
	DurationMS int64          `gorm:"column:duration_ms;not null" json:"duration_ms"`
	Usage      datatypes.JSON `gorm:"column:usage" json:"usage"`
	CreatedAt  time.Time      `gorm:"not null;index" json:"created_at"`
}

func (AICallLog) TableName() string {
	return "ai_call_log"
}

func (l *AICallLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
