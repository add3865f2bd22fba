package flow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/placement-client/internal/answers"
	"github.com/stemsi/placement-client/internal/config"
	"github.com/stemsi/placement-client/internal/model"
	"github.com/stemsi/placement-client/internal/storage"
	"github.com/stemsi/placement-client/internal/timer"
)

type fakeLister struct {
	questions []model.Question
	err       error
	calls     int
}

func (f *fakeLister) ListQuestions(_ context.Context, _, _ string) ([]model.Question, error) {
	f.calls++
	return f.questions, f.err
}

func questionSet(n int) []model.Question {
	qs := make([]model.Question, 0, n)
	for i := 1; i <= n; i++ {
		qs = append(qs, model.Question{
			ID:       i,
			Question: fmt.Sprintf("Question %d", i),
			Answers: []model.AnswerChoice{
				{ID: i * 10, Answer: "a"},
				{ID: i*10 + 1, Answer: "b"},
			},
		})
	}
	return qs
}

func newTestController(t *testing.T, lister *fakeLister, seedSession bool) (*Controller, *storage.MemoryStore) {
	t.Helper()
	ctx := context.Background()
	kv := storage.NewMemory()
	if seedSession {
		require.NoError(t, kv.Set(ctx, config.StorageKey.StudentID, "11"))
		require.NoError(t, kv.Set(ctx, config.StorageKey.SetQuestion, "3"))
	}

	countdown := timer.New(kv, config.StorageKey.TimerRemaining, 1800, zerolog.Nop())
	ans := answers.New(kv, zerolog.Nop())
	return NewController(lister, kv, countdown, ans, zerolog.Nop()), kv
}

func TestLoadQuestionsRequiresSessionIdentifiers(t *testing.T) {
	lister := &fakeLister{questions: questionSet(24)}
	ctrl, _ := newTestController(t, lister, false)

	err := ctrl.LoadQuestions(context.Background())
	require.ErrorIs(t, err, ErrNoSession)
	assert.True(t, ctrl.NoSession())
	assert.Zero(t, lister.calls, "no fetch without identifiers")
}

func TestLoadQuestionsFailureLeavesZeroQuestions(t *testing.T) {
	lister := &fakeLister{err: errors.New("boom")}
	ctrl, _ := newTestController(t, lister, true)

	err := ctrl.LoadQuestions(context.Background())
	require.Error(t, err)
	assert.Empty(t, ctrl.Questions())
	assert.Equal(t, 1, lister.calls, "single attempt, no retry")
}

func TestPagination(t *testing.T) {
	ctrl, _ := newTestController(t, &fakeLister{questions: questionSet(24)}, true)
	require.NoError(t, ctrl.LoadQuestions(context.Background()))

	assert.Equal(t, 4, ctrl.TotalPages())
	assert.Equal(t, 1, ctrl.CurrentPage())
	assert.Equal(t, 6, ctrl.EndIndex())

	page := ctrl.Paginated()
	require.Len(t, page, 6)
	assert.Equal(t, 1, page[0].ID)
	assert.Equal(t, 6, page[5].ID)
}

func TestNextAndPrevPage(t *testing.T) {
	ctx := context.Background()
	ctrl, _ := newTestController(t, &fakeLister{questions: questionSet(24)}, true)
	require.NoError(t, ctrl.LoadQuestions(ctx))

	assert.False(t, ctrl.NextPage(ctx))
	assert.Equal(t, 2, ctrl.CurrentPage())
	assert.Equal(t, 7, ctrl.Paginated()[0].ID)

	ctrl.PrevPage()
	assert.Equal(t, 1, ctrl.CurrentPage())

	// Never below page 1.
	ctrl.PrevPage()
	assert.Equal(t, 1, ctrl.CurrentPage())
}

func TestLastPageHandsOffToWritingAndPersistsTimer(t *testing.T) {
	ctx := context.Background()
	ctrl, kv := newTestController(t, &fakeLister{questions: questionSet(24)}, true)
	require.NoError(t, ctrl.LoadQuestions(ctx))

	for ctrl.CurrentPage() < ctrl.TotalPages() {
		ctrl.NextPage(ctx)
	}
	assert.Equal(t, 4, ctrl.CurrentPage())

	assert.True(t, ctrl.NextPage(ctx))
	assert.Equal(t, 4, ctrl.CurrentPage(), "hand-off does not increment")

	raw, ok, err := kv.Get(ctx, config.StorageKey.TimerRemaining)
	require.NoError(t, err)
	require.True(t, ok, "timer persisted before hand-off")
	_, err = strconv.Atoi(raw)
	assert.NoError(t, err)
}

func TestNextPageNoOpWithoutQuestions(t *testing.T) {
	ctx := context.Background()
	ctrl, _ := newTestController(t, &fakeLister{err: errors.New("down")}, true)
	_ = ctrl.LoadQuestions(ctx)

	assert.False(t, ctrl.NextPage(ctx))
	assert.Equal(t, 1, ctrl.CurrentPage())
	assert.Zero(t, ctrl.TotalPages())
	assert.Empty(t, ctrl.Paginated())
}

func TestAnswerCaptureThroughController(t *testing.T) {
	ctx := context.Background()
	ctrl, _ := newTestController(t, &fakeLister{questions: questionSet(24)}, true)
	require.NoError(t, ctrl.LoadQuestions(ctx))

	ctrl.SelectAnswer(ctx, 3, 30)
	assert.True(t, ctrl.IsSelected(3, 30))
	assert.False(t, ctrl.IsSelected(3, 31))
}

func TestPartialLastPage(t *testing.T) {
	ctrl, _ := newTestController(t, &fakeLister{questions: questionSet(20)}, true)
	require.NoError(t, ctrl.LoadQuestions(context.Background()))

	assert.Equal(t, 4, ctrl.TotalPages())
	ctx := context.Background()
	ctrl.NextPage(ctx)
	ctrl.NextPage(ctx)
	ctrl.NextPage(ctx)
	assert.Len(t, ctrl.Paginated(), 2)
	assert.Equal(t, 20, ctrl.EndIndex())
}
