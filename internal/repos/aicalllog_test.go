package repos

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/flowgen-backend/internal/db"
	"github.com/yungbote/flowgen-backend/internal/modules/workflowgen/steps"
	"github.com/yungbote/flowgen-backend/internal/platform/ctxutil"
	"github.com/yungbote/flowgen-backend/internal/platform/logger"
	"github.com/yungbote/flowgen-backend/internal/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.Open(logger.Nop(), fmt.Sprintf("sqlite:file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrateAll(gdb))
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

func TestAICallLogRepoCreateAndList(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewAICallLogRepo(gdb, logger.Nop())
	ctx := context.Background()

	empty, err := repo.Create(ctx, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	created, err := repo.Create(ctx, nil, []*types.AICallLog{
		{CallType: types.CallTypeWorkflowGeneration, Model: "a", Attempt: 1, CreatedAt: base},
		{CallType: types.CallTypeWorkflowGeneration, Model: "b", Attempt: 1, Success: true, CreatedAt: base.Add(time.Minute)},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.NotEqual(t, created[0].ID, created[1].ID)

	rows, err := repo.ListRecent(ctx, nil, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "b", rows[0].Model)
	assert.True(t, rows[0].Success)
}

func TestCallLogRecorderWritesAttempt(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewAICallLogRepo(gdb, logger.Nop())
	rec := NewCallLogRecorder(repo, logger.Nop())

	ctx := ctxutil.WithTraceData(context.Background(), &ctxutil.TraceData{RequestID: "req-1"})
	rec.RecordCall(ctx, steps.CallRecord{
		Model:    "gemini-2.0-flash",
		Attempt:  2,
		Overload: true,
		Err:      errors.New("model is overloaded"),
		Duration: 1500 * time.Millisecond,
	})

	rows, err := repo.ListRecent(context.Background(), nil, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	row := rows[0]
	assert.Equal(t, "req-1", row.RequestID)
	assert.Equal(t, "gemini-2.0-flash", row.Model)
	assert.Equal(t, 2, row.Attempt)
	assert.True(t, row.Overload)
	assert.False(t, row.Success)
	assert.Equal(t, "model is overloaded", row.Error)
	assert.Equal(t, int64(1500), row.DurationMS)
	assert.JSONEq(t, `{"attempt":2,"duration_ms":1500}`, string(row.Usage))
}

type failingRepo struct{ calls int }

func (f *failingRepo) Create(ctx context.Context, tx *gorm.DB, logs []*types.AICallLog) ([]*types.AICallLog, error) {
	f.calls++
	return nil, errors.New("db down")
}

func (f *failingRepo) ListRecent(ctx context.Context, tx *gorm.DB, limit int) ([]*types.AICallLog, error) {
	return nil, nil
}

func TestCallLogRecorderSwallowsErrors(t *testing.T) {
	repo := &failingRepo{}
	rec := NewCallLogRecorder(repo, logger.Nop())
	assert.NotPanics(t, func() {
		rec.RecordCall(context.Background(), steps.CallRecord{Model: "m", Success: true})
	})
	assert.Equal(t, 1, repo.calls)

	var nilRec *CallLogRecorder
	assert.NotPanics(t, func() { nilRec.RecordCall(context.Background(), steps.CallRecord{}) })
}
