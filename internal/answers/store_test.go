package answers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/placement-client/internal/config"
	"github.com/stemsi/placement-client/internal/model"
	"github.com/stemsi/placement-client/internal/storage"
)

func newTestStore(t *testing.T) (*Store, *storage.MemoryStore) {
	t.Helper()
	kv := storage.NewMemory()
	return New(kv, zerolog.Nop()), kv
}

func TestSelectLastWriteWins(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	s.Select(ctx, 1, 10)
	s.Select(ctx, 2, 20)
	s.Select(ctx, 1, 11)

	assert.True(t, s.IsSelected(1, 11))
	assert.False(t, s.IsSelected(1, 10))
	assert.True(t, s.IsSelected(2, 20))
	assert.Equal(t, 2, s.Len())
}

func TestSnapshotUsesLastInsertedRecord(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	// Re-selecting q1 updates its value in place; q2 stays the last
	// *inserted* record, so its answer id wins.
	s.Select(ctx, 1, 10)
	s.Select(ctx, 2, 20)
	s.Select(ctx, 1, 11)

	snap := s.Snapshot(ctx)
	require.Len(t, snap.StudentAnswers, 2)
	assert.Equal(t, model.AnswerRecord{QuestionID: 1, AnswerID: 11}, snap.StudentAnswers[0])
	assert.Equal(t, model.AnswerRecord{QuestionID: 2, AnswerID: 20}, snap.StudentAnswers[1])
	assert.Equal(t, 20, snap.StudentAnswerID)
}

func TestSnapshotEmptyStore(t *testing.T) {
	s, _ := newTestStore(t)

	snap := s.Snapshot(context.Background())
	assert.Equal(t, 0, snap.StudentAnswerID)
	assert.Empty(t, snap.StudentAnswers)
	assert.Equal(t, "00:00", snap.Duration)
}

func TestSelectPersistsFullSnapshot(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestStore(t)
	require.NoError(t, kv.Set(ctx, config.StorageKey.StudentID, "42"))

	s.Select(ctx, 7, 70)

	raw, ok, err := kv.Get(ctx, config.StorageKey.TestAnswers)
	require.NoError(t, err)
	require.True(t, ok)

	var snap model.AnswersSnapshot
	require.NoError(t, json.Unmarshal([]byte(raw), &snap))
	assert.Equal(t, 42, snap.StudentID)
	assert.Equal(t, 70, snap.StudentAnswerID)
	assert.Equal(t, []model.AnswerRecord{{QuestionID: 7, AnswerID: 70}}, snap.StudentAnswers)
	assert.NotZero(t, snap.Timestamp)
}

func TestRestoreRoundTripPreservesOrder(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestStore(t)

	s.Select(ctx, 5, 50)
	s.Select(ctx, 3, 30)
	s.Select(ctx, 9, 90)
	original := s.Snapshot(ctx)

	restored := New(kv, zerolog.Nop())
	restored.Restore(ctx)

	assert.Equal(t, original.StudentAnswers, restored.Snapshot(ctx).StudentAnswers)
	assert.Equal(t, original.Timestamp, restored.Snapshot(ctx).Timestamp)
}

func TestRestoreSkipsMalformedEntries(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	require.NoError(t, kv.Set(ctx, config.StorageKey.TestAnswers,
		`{"student_answers":[
			{"question_id":1,"answer_id":10},
			{"question_id":2},
			{"answer_id":30},
			{"question_id":4,"answer_id":40}
		],"timestamp":1700000000000}`))

	s := New(kv, zerolog.Nop())
	s.Restore(ctx)

	assert.Equal(t, 2, s.Len())
	assert.True(t, s.IsSelected(1, 10))
	assert.True(t, s.IsSelected(4, 40))
	assert.False(t, s.IsSelected(2, 0))
}

func TestRestoreMalformedPayloadLeavesStoreEmpty(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	require.NoError(t, kv.Set(ctx, config.StorageKey.TestAnswers, `{"not":"valid shape"}`))

	s := New(kv, zerolog.Nop())
	s.Restore(ctx)
	assert.Equal(t, 0, s.Len())
}

func TestRestoreInvalidJSONLeavesStoreEmpty(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	require.NoError(t, kv.Set(ctx, config.StorageKey.TestAnswers, `not json at all`))

	s := New(kv, zerolog.Nop())
	s.Restore(ctx)
	assert.Equal(t, 0, s.Len())
}

func TestRestoreAdoptsSessionStart(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	start := time.Now().Add(-90 * time.Second).UnixMilli()
	raw, _ := json.Marshal(model.AnswersSnapshot{
		StudentAnswers: []model.AnswerRecord{{QuestionID: 1, AnswerID: 10}},
		Timestamp:      start,
	})
	require.NoError(t, kv.Set(ctx, config.StorageKey.TestAnswers, string(raw)))

	s := New(kv, zerolog.Nop())
	s.Restore(ctx)

	snap := s.Snapshot(ctx)
	assert.Equal(t, start, snap.Timestamp)
	// Elapsed duration is computed from the restored start.
	assert.Contains(t, []string{"01:30", "01:31"}, snap.Duration)
}
