package repos

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/flowgen-backend/internal/modules/workflowgen/steps"
	"github.com/yungbote/flowgen-backend/internal/platform/ctxutil"
	"github.com/yungbote/flowgen-backend/internal/platform/logger"
	"github.com/yungbote/flowgen-backend/internal/types"
)

type AICallLogRepo interface {
	Create(ctx context.Context, tx *gorm.DB, logs []*types.AICallLog) ([]*types.AICallLog, error)
	ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*types.AICallLog, error)
}

type aiCallLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAICallLogRepo(db *gorm.DB, baseLog *logger.Logger) AICallLogRepo {
	repoLog := baseLog.With("repo", "AICallLogRepo")
	return &aiCallLogRepo{db: db, log: repoLog}
}

func (r *aiCallLogRepo) Create(ctx context.Context, tx *gorm.DB, logs []*types.AICallLog) ([]*types.AICallLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(logs) == 0 {
		return []*types.AICallLog{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// ListRecent returns the newest rows first.
func (r *aiCallLogRepo) ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*types.AICallLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 50
	}
	var out []*types.AICallLog
	if err := transaction.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// CallLogRecorder writes model attempts to the audit table. Write failures
// are logged and dropped.
type CallLogRecorder struct {
	repo AICallLogRepo
	log  *logger.Logger
	now  func() time.Time
}

func NewCallLogRecorder(repo AICallLogRepo, baseLog *logger.Logger) *CallLogRecorder {
	return &CallLogRecorder{
		repo: repo,
		log:  baseLog.With("service", "CallLogRecorder"),
		now:  time.Now,
	}
}

func (r *CallLogRecorder) RecordCall(ctx context.Context, rec steps.CallRecord) {
	if r == nil || r.repo == nil {
		return
	}
	row := &types.AICallLog{
		CallType:   types.CallTypeWorkflowGeneration,
		Model:      rec.Model,
		Attempt:    rec.Attempt,
		Success:    rec.Success,
		Overload:   rec.Overload,
		DurationMS: rec.Duration.Milliseconds(),
		CreatedAt:  r.now(),
	}
	if td := ctxutil.GetTraceData(ctx); td != nil {
		row.RequestID = td.RequestID
	}
	if rec.Err != nil {
		row.Error = rec.Err.Error()
	}
	if usage, err := json.Marshal(map[string]any{"duration_ms": row.DurationMS, "attempt": rec.Attempt}); err == nil {
		row.Usage = datatypes.JSON(usage)
	}
	if _, err := r.repo.Create(context.WithoutCancel(ctx), nil, []*types.AICallLog{row}); err != nil {
		r.log.Warn("Failed to record model call", append(ctxutil.LogFields(ctx), "model", rec.Model, "error", err)...)
	}
}
